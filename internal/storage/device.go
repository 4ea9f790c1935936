package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lanscope/lanscope/pkg/models"
)

// SaveDevice upserts device, implementing the registry.Persister boundary.
func (s *Store) SaveDevice(ctx context.Context, device models.Device) error {
	openPorts, err := json.Marshal(device.OpenPorts)
	if err != nil {
		return fmt.Errorf("marshal openPorts: %w", err)
	}
	services, err := json.Marshal(device.DiscoveredServices)
	if err != nil {
		return fmt.Errorf("marshal services: %w", err)
	}
	smartSignals, err := json.Marshal(device.Signals)
	if err != nil {
		return fmt.Errorf("marshal smartSignals: %w", err)
	}
	httpInfo, err := marshalOptional(device.HTTPInfo)
	if err != nil {
		return fmt.Errorf("marshal httpInfo: %w", err)
	}
	fingerprint, err := marshalOptional(device.Fingerprint)
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}
	mdnsTXT, err := marshalOptionalMap(device.MDNSTXTRecords)
	if err != nil {
		return fmt.Errorf("marshal mdnsTXTRecords: %w", err)
	}
	portBanners, err := marshalOptionalMap(device.PortBanners)
	if err != nil {
		return fmt.Errorf("marshal portBanners: %w", err)
	}
	macAnalysis, err := marshalOptional(device.MACAnalysis)
	if err != nil {
		return fmt.Errorf("marshal macAnalysis: %w", err)
	}
	securityPosture, err := marshalOptional(device.SecurityPosture)
	if err != nil {
		return fmt.Errorf("marshal securityPosture: %w", err)
	}
	behaviorProfile, err := marshalOptional(device.BehaviorProfile)
	if err != nil {
		return fmt.Errorf("marshal behaviorProfile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO devices (
			mac, id, ip, hostname, vendor, firstSeen, lastSeen, isOnline,
			smartScore, deviceType, userLabel, openPorts, services, httpInfo,
			smartSignals, fingerprint, mdnsTXTRecords, portBanners, macAnalysis,
			securityPosture, behaviorProfile, sourceInterface, subnet
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			id=excluded.id, ip=excluded.ip, hostname=excluded.hostname,
			vendor=excluded.vendor, lastSeen=excluded.lastSeen,
			isOnline=excluded.isOnline, smartScore=excluded.smartScore,
			deviceType=excluded.deviceType, userLabel=excluded.userLabel,
			openPorts=excluded.openPorts, services=excluded.services,
			httpInfo=excluded.httpInfo, smartSignals=excluded.smartSignals,
			fingerprint=excluded.fingerprint, mdnsTXTRecords=excluded.mdnsTXTRecords,
			portBanners=excluded.portBanners, macAnalysis=excluded.macAnalysis,
			securityPosture=excluded.securityPosture, behaviorProfile=excluded.behaviorProfile,
			sourceInterface=excluded.sourceInterface, subnet=excluded.subnet
	`,
		device.MAC, device.UUID, device.IP, device.Hostname, device.Vendor,
		device.FirstSeen, device.LastSeen, boolToInt(device.IsOnline),
		device.SmartScore, string(device.DeviceType), device.UserLabel,
		string(openPorts), string(services), httpInfo, string(smartSignals),
		fingerprint, mdnsTXT, portBanners, macAnalysis, securityPosture,
		behaviorProfile, device.SourceInterface, device.Subnet,
	)
	if err != nil {
		return fmt.Errorf("upsert device %s: %w", device.MAC, err)
	}
	return nil
}

// LoadDevice retrieves a single device by MAC.
func (s *Store) LoadDevice(ctx context.Context, mac string) (models.Device, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mac, id, ip, hostname, vendor, firstSeen, lastSeen, isOnline,
			smartScore, deviceType, userLabel, openPorts, services, httpInfo,
			smartSignals, fingerprint, mdnsTXTRecords, portBanners, macAnalysis,
			securityPosture, behaviorProfile, sourceInterface, subnet
		FROM devices WHERE mac = ?`, mac)
	device, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return models.Device{}, false, nil
	}
	if err != nil {
		return models.Device{}, false, err
	}
	return device, true, nil
}

// LoadAllDevices retrieves every persisted device.
func (s *Store) LoadAllDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mac, id, ip, hostname, vendor, firstSeen, lastSeen, isOnline,
			smartScore, deviceType, userLabel, openPorts, services, httpInfo,
			smartSignals, fingerprint, mdnsTXTRecords, portBanners, macAnalysis,
			securityPosture, behaviorProfile, sourceInterface, subnet
		FROM devices`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, device)
	}
	return out, rows.Err()
}

// rowScanner abstracts over *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (models.Device, error) {
	var d models.Device
	var isOnline int
	var openPorts, services, smartSignals string
	var httpInfo, fingerprint, mdnsTXT, portBanners, macAnalysis, securityPosture, behaviorProfile sql.NullString
	var deviceType string

	err := row.Scan(
		&d.MAC, &d.UUID, &d.IP, &d.Hostname, &d.Vendor, &d.FirstSeen, &d.LastSeen,
		&isOnline, &d.SmartScore, &deviceType, &d.UserLabel, &openPorts, &services,
		&httpInfo, &smartSignals, &fingerprint, &mdnsTXT, &portBanners, &macAnalysis,
		&securityPosture, &behaviorProfile, &d.SourceInterface, &d.Subnet,
	)
	if err != nil {
		return models.Device{}, err
	}

	d.IsOnline = isOnline != 0
	d.DeviceType = models.DeviceType(deviceType)
	json.Unmarshal([]byte(openPorts), &d.OpenPorts)
	json.Unmarshal([]byte(services), &d.DiscoveredServices)
	json.Unmarshal([]byte(smartSignals), &d.Signals)
	unmarshalOptional(httpInfo, &d.HTTPInfo)
	unmarshalOptional(fingerprint, &d.Fingerprint)
	unmarshalOptionalMap(mdnsTXT, &d.MDNSTXTRecords)
	unmarshalOptionalMap(portBanners, &d.PortBanners)
	unmarshalOptional(macAnalysis, &d.MACAnalysis)
	unmarshalOptional(securityPosture, &d.SecurityPosture)
	unmarshalOptional(behaviorProfile, &d.BehaviorProfile)

	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalOptional(v any) (sql.NullString, error) {
	if isNilPointer(v) {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalOptionalMap(v any) (sql.NullString, error) {
	if isNilMap(v) {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalOptional(ns sql.NullString, dest any) {
	if !ns.Valid {
		return
	}
	json.Unmarshal([]byte(ns.String), dest)
}

func unmarshalOptionalMap(ns sql.NullString, dest any) {
	if !ns.Valid {
		return
	}
	json.Unmarshal([]byte(ns.String), dest)
}

func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *models.HTTPInfo:
		return p == nil
	case *models.DeviceFingerprint:
		return p == nil
	case *models.MACAnalysis:
		return p == nil
	case *models.SecurityPostureData:
		return p == nil
	case *models.DeviceBehaviorProfile:
		return p == nil
	}
	return v == nil
}

func isNilMap(v any) bool {
	switch m := v.(type) {
	case map[string]models.TXTRecord:
		return m == nil
	case map[int]models.PortBanner:
		return m == nil
	}
	return v == nil
}
