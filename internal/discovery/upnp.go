package discovery

import (
	"context"
	"net/url"
	"time"

	"github.com/huin/goupnp"
	"go.uber.org/zap"

	"github.com/lanscope/lanscope/pkg/models"
)

// upnpFetchTimeout bounds a single LOCATION GET (§4.6).
const upnpFetchTimeout = 5 * time.Second

// UPnPFetcher fetches and parses a device description XML document from its
// SSDP LOCATION URL.
type UPnPFetcher struct {
	logger *zap.Logger
}

// NewUPnPFetcher creates a description fetcher.
func NewUPnPFetcher(logger *zap.Logger) *UPnPFetcher {
	return &UPnPFetcher{logger: logger}
}

// Fetch retrieves and parses the description at location. Returns
// (fingerprint, true) on success, (zero, false) when the document is
// malformed, unreachable, or under-specified (fewer than one of
// friendlyName/manufacturer/modelName/deviceType present).
func (f *UPnPFetcher) Fetch(ctx context.Context, location string) (models.DeviceFingerprint, bool) {
	loc, err := url.Parse(location)
	if err != nil {
		f.logger.Debug("invalid UPnP LOCATION URL", zap.String("location", location), zap.Error(err))
		return models.DeviceFingerprint{}, false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, upnpFetchTimeout)
	defer cancel()

	root, err := goupnp.DeviceByURLCtx(fetchCtx, loc)
	if err != nil {
		f.logger.Debug("UPnP description fetch failed", zap.String("location", location), zap.Error(err))
		return models.DeviceFingerprint{}, false
	}

	dev := root.Device
	present := 0
	if dev.FriendlyName != "" {
		present++
	}
	if dev.Manufacturer != "" {
		present++
	}
	if dev.ModelName != "" {
		present++
	}
	if dev.DeviceType != "" {
		present++
	}
	if present < 1 {
		return models.DeviceFingerprint{}, false
	}

	var services []string
	for _, svc := range dev.Services {
		services = append(services, svc.ServiceType)
	}

	fp := models.DeviceFingerprint{
		FriendlyName:   dev.FriendlyName,
		Manufacturer:   dev.Manufacturer,
		ModelName:      dev.ModelName,
		ModelNumber:    dev.ModelNumber,
		SerialNumber:   dev.SerialNumber,
		UPnPDeviceType: dev.DeviceType,
		UPnPServices:   services,
		Source:         models.FingerprintSourceUPnP,
		Timestamp:      time.Now(),
	}
	return fp, true
}
