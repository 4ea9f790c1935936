package mdnstxt

import (
	"strings"

	"github.com/lanscope/lanscope/pkg/models"
)

// homeKitCategoryTypes maps a HomeKit accessory category to the device type
// it suggests.
var homeKitCategoryTypes = map[models.HomeKitCategory]models.DeviceType{
	models.HomeKitCategoryBridge:            models.DeviceTypeHub,
	models.HomeKitCategoryFan:               models.DeviceTypeIoT,
	models.HomeKitCategoryGarageDoorOpener:  models.DeviceTypeIoT,
	models.HomeKitCategoryLighting:          models.DeviceTypeIoT,
	models.HomeKitCategoryLock:              models.DeviceTypeIoT,
	models.HomeKitCategoryOutlet:            models.DeviceTypeIoT,
	models.HomeKitCategorySwitch:            models.DeviceTypeIoT,
	models.HomeKitCategoryThermostat:        models.DeviceTypeIoT,
	models.HomeKitCategorySensor:            models.DeviceTypeIoT,
	models.HomeKitCategorySecuritySystem:    models.DeviceTypeIoT,
	models.HomeKitCategoryDoor:              models.DeviceTypeIoT,
	models.HomeKitCategoryWindow:            models.DeviceTypeIoT,
	models.HomeKitCategoryWindowCovering:    models.DeviceTypeIoT,
	models.HomeKitCategoryProgrammableSwitch: models.DeviceTypeIoT,
	models.HomeKitCategoryRangeExtender:     models.DeviceTypeAccessPoint,
	models.HomeKitCategoryIPCamera:          models.DeviceTypeCamera,
	models.HomeKitCategoryVideoDoorbell:     models.DeviceTypeCamera,
	models.HomeKitCategoryAirPurifier:       models.DeviceTypeIoT,
	models.HomeKitCategoryAirHeater:         models.DeviceTypeIoT,
	models.HomeKitCategoryAirConditioner:    models.DeviceTypeIoT,
	models.HomeKitCategoryAirHumidifier:     models.DeviceTypeIoT,
	models.HomeKitCategoryAirDehumidifier:   models.DeviceTypeIoT,
	models.HomeKitCategoryAppleTV:           models.DeviceTypeSmartTV,
	models.HomeKitCategoryHomePod:           models.DeviceTypeSpeaker,
	models.HomeKitCategorySpeaker:           models.DeviceTypeSpeaker,
	models.HomeKitCategoryAirport:           models.DeviceTypeRouter,
	models.HomeKitCategorySprinkler:         models.DeviceTypeIoT,
	models.HomeKitCategoryFaucet:            models.DeviceTypeIoT,
	models.HomeKitCategoryShowerHead:        models.DeviceTypeIoT,
	models.HomeKitCategoryTelevision:        models.DeviceTypeSmartTV,
	models.HomeKitCategoryTargetController:  models.DeviceTypeHub,
	models.HomeKitCategoryWiFiRouter:        models.DeviceTypeRouter,
	models.HomeKitCategoryAudioReceiver:     models.DeviceTypeSpeaker,
	models.HomeKitCategoryTVSetTopBox:       models.DeviceTypeSmartTV,
	models.HomeKitCategoryTVStreamingStick:  models.DeviceTypeSmartTV,
}

// Signal derives the mdnsTXT device-type signal from a parsed TXTRecord per
// the model/category tables (§4.10, §3).
func Signal(rec models.TXTRecord) (deviceType models.DeviceType, confidence float64, ok bool) {
	switch rec.Family {
	case models.TXTFamilyHomeKit:
		if rec.HomeKit == nil {
			return "", 0, false
		}
		dt, known := homeKitCategoryTypes[rec.HomeKit.Category]
		if !known || dt == "" {
			return models.DeviceTypeIoT, 0.55, true
		}
		return dt, 0.80, true

	case models.TXTFamilyAirPlay:
		if rec.AirPlay == nil {
			return "", 0, false
		}
		model := strings.ToLower(rec.AirPlay.Model)
		switch {
		case strings.Contains(model, "appletv"), strings.Contains(model, "apple tv"):
			return models.DeviceTypeSmartTV, 0.85, true
		case rec.AirPlay.AudioOnly:
			return models.DeviceTypeSpeaker, 0.80, true
		default:
			return models.DeviceTypeSmartTV, 0.60, true
		}

	case models.TXTFamilyGoogleCast:
		if rec.GoogleCast == nil {
			return "", 0, false
		}
		model := strings.ToLower(rec.GoogleCast.Model)
		switch {
		case strings.Contains(model, "home"), strings.Contains(model, "nest"):
			return models.DeviceTypeHub, 0.75, true
		case rec.GoogleCast.Groups:
			return models.DeviceTypeSpeaker, 0.70, true
		default:
			return models.DeviceTypeSmartTV, 0.80, true
		}

	case models.TXTFamilyRAOP:
		if rec.RAOP == nil {
			return "", 0, false
		}
		return models.DeviceTypeSpeaker, 0.80, true

	default:
		return "", 0, false
	}
}
