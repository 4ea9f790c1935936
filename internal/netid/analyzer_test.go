package netid

import "testing"

func TestAnalyze_RandomizedMAC(t *testing.T) {
	mac := MustNormalize("02:11:22:33:44:55")
	analysis := Analyze(mac, "")

	if !analysis.IsLocallyAdministered {
		t.Fatal("expected locally-administered bit set")
	}
	if analysis.IsMulticast {
		t.Fatal("expected unicast")
	}
	if !analysis.IsRandomized {
		t.Fatal("expected IsRandomized for locally-administered unicast MAC")
	}
	if analysis.VendorConfidence != "randomized" {
		t.Fatalf("got confidence %q, want randomized", analysis.VendorConfidence)
	}
}

func TestAnalyze_MulticastBitSuppressesRandomized(t *testing.T) {
	mac := MustNormalize("03:11:22:33:44:55")
	analysis := Analyze(mac, "")

	if !analysis.IsLocallyAdministered {
		t.Fatal("expected locally-administered bit set")
	}
	if !analysis.IsMulticast {
		t.Fatal("expected multicast bit set")
	}
	if analysis.IsRandomized {
		t.Fatal("multicast+locally-administered MAC must not be flagged randomized")
	}
}

func TestAnalyze_GloballyUniqueVendorMAC(t *testing.T) {
	mac := MustNormalize("34:7E:5C:11:22:33")
	analysis := Analyze(mac, LookupVendor(mac))

	if analysis.IsLocallyAdministered {
		t.Fatal("expected globally-unique (non-locally-administered) MAC")
	}
	if analysis.IsRandomized {
		t.Fatal("globally-unique MAC must not be flagged randomized")
	}
	if analysis.VendorConfidence != "high" {
		t.Fatalf("got confidence %q, want high for Apple OUI", analysis.VendorConfidence)
	}
	if analysis.DeviceCategory != "computer" {
		t.Fatalf("got category %q, want computer for Apple OUI", analysis.DeviceCategory)
	}
}

func TestAnalyze_VirtualMachineOUI(t *testing.T) {
	mac := MustNormalize("00:50:56:aa:bb:cc")
	analysis := Analyze(mac, LookupVendor(mac))

	if !analysis.IsVirtualMachine {
		t.Fatal("expected VMware OUI to be flagged as a virtual machine")
	}
}

func TestAnalyze_UnknownVendorIsUnknownConfidenceNotRandomized(t *testing.T) {
	mac := MustNormalize("A8:BB:CC:DD:EE:FF")
	analysis := Analyze(mac, "")

	if analysis.IsRandomized {
		t.Fatal("unknown globally-unique vendor must not be flagged randomized")
	}
	if analysis.VendorConfidence != "unknown" {
		t.Fatalf("got confidence %q, want unknown for empty vendor", analysis.VendorConfidence)
	}
}

func TestAnalyze_SonosSpecialization(t *testing.T) {
	mac := MustNormalize("B0:C5:54:11:22:33")
	analysis := Analyze(mac, LookupVendor(mac))

	if analysis.DeviceCategory != "speaker" {
		t.Fatalf("got category %q, want speaker", analysis.DeviceCategory)
	}
	if analysis.Specialization != "speaker" {
		t.Fatalf("got specialization %q, want speaker", analysis.Specialization)
	}
}

func TestSignal_UnclassifiedVendorHasNoSignal(t *testing.T) {
	_, _, ok := Signal(Analyze(MustNormalize("AA:BB:CC:DD:EE:FF"), ""))
	if ok {
		t.Fatal("expected no signal for unclassified device category")
	}
}

func TestSignal_HighConfidenceVendorYieldsHigherWeight(t *testing.T) {
	mac := MustNormalize("34:7E:5C:11:22:33")
	deviceType, confidence, ok := Signal(Analyze(mac, LookupVendor(mac)))
	if !ok {
		t.Fatal("expected a signal for Apple OUI")
	}
	if deviceType != "computer" {
		t.Fatalf("got device type %q, want computer", deviceType)
	}
	if confidence != 0.8 {
		t.Fatalf("got confidence %v, want 0.8 for high vendor confidence", confidence)
	}
}
