// Package domain models the traffic-accident risk features shared by the
// offline trainer and the online predictor.
//
// # Data Source
//
// The training dataset is the regional traffic accident export (one row per
// accident) converted to CSV. Column names are Korean and are kept verbatim
// because the persisted metadata uses them as keys:
//
//	시군구       location (full administrative address, e.g. "대구광역시 중구 동인동")
//	기상상태     weather at the time of the accident
//	노면상태     road surface condition
//	사고위험도   risk score target (ECLO-style weighted casualty count)
//
// # Categories
//
// Weather is reduced to four categories and the road surface to three:
//
//	Weather: 맑음 (clear) | 흐림 (overcast) | 비 (rain) | 안개 (fog)
//	Surface: 서리/결빙 (frost/ice) | 젖음/습기 (wet) | 건조 (dry)
//
// Training drops rows outside these sets. Prediction coerces unknown values
// to 흐림 and 건조. Locations are never coerced: a location that was not seen
// during training has no historical average and is rejected with
// [UnknownLocationError].
//
// # Derived Features
//
// Each categorical column gets a companion numeric column holding the mean
// training target for that category (지역평균위험도, 기상평균위험도,
// 노면평균위험도). At prediction time a missing category falls back to the
// mean of its table's values. See [AverageTable].
//
// # Live Weather
//
// OpenWeather "main" labels (Clear, Clouds, Rain, Mist, ...) are mapped to the
// four weather categories by [WeatherMapping]. The road surface is not
// observed and is derived from the weather category and temperature:
//
//	비:    서리/결빙 when temp <= 0°C, otherwise 젖음/습기
//	안개:  젖음/습기
//	other: 건조
package domain
