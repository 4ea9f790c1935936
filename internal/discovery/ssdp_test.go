package discovery

import "testing"

func TestParseSSDPMessage_NotifyHeaders(t *testing.T) {
	raw := "NOTIFY * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"SERVER: Linux/3.10 UPnP/1.0 Sonos/60.1\r\n" +
		"USN: uuid:RINCON_000E58123401::urn:schemas-upnp-org:device:ZonePlayer:1\r\n" +
		"ST: urn:schemas-upnp-org:device:ZonePlayer:1\r\n" +
		"LOCATION: http://192.168.1.50:1400/xml/device_description.xml\r\n" +
		"\r\n"

	obs, ok := parseSSDPMessage([]byte(raw))
	if !ok {
		t.Fatal("expected headers to be found")
	}
	if obs.Server == "" || obs.USN == "" || obs.ST == "" || obs.Location == "" {
		t.Fatalf("got incomplete observation: %+v", obs)
	}
	if obs.Location != "http://192.168.1.50:1400/xml/device_description.xml" {
		t.Fatalf("got LOCATION %q", obs.Location)
	}
}

func TestParseSSDPMessage_MalformedLinesSkipped(t *testing.T) {
	raw := "NOTIFY * HTTP/1.1\r\n" +
		"this line has no colon\r\n" +
		"SERVER: Test/1.0\r\n" +
		":\r\n" +
		"\r\n"

	obs, ok := parseSSDPMessage([]byte(raw))
	if !ok {
		t.Fatal("expected at least one header to parse")
	}
	if obs.Server != "Test/1.0" {
		t.Fatalf("got server %q", obs.Server)
	}
}

func TestParseSSDPMessage_NoHeadersReturnsFalse(t *testing.T) {
	_, ok := parseSSDPMessage([]byte("garbage\r\nmore garbage\r\n"))
	if ok {
		t.Fatal("expected ok=false for a message with no recognized headers")
	}
}
