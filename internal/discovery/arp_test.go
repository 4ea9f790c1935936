package discovery

import "testing"

func TestParseLinuxARP(t *testing.T) {
	output := "IP address       HW type     Flags       HW address            Mask     Device\n" +
		"192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:ff     *        eth0\n" +
		"192.168.1.2      0x1         0x2         00:00:00:00:00:00     *        eth0\n"

	entries := ParseLinuxARP(output)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (incomplete entry should be skipped)", len(entries))
	}
	if entries[0].IP != "192.168.1.1" || entries[0].MAC != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("got %+v", entries[0])
	}
	if entries[0].Interface != "eth0" {
		t.Fatalf("got interface %q, want eth0", entries[0].Interface)
	}
}

func TestParseWindowsARP(t *testing.T) {
	output := "Interface: 192.168.1.10 --- 0x3\n" +
		"  Internet Address      Physical Address      Type\n" +
		"  192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic\n" +
		"  192.168.1.255         ff-ff-ff-ff-ff-ff     static\n"

	entries := ParseWindowsARP(output)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (broadcast should be skipped)", len(entries))
	}
	if entries[0].MAC != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("got MAC %q", entries[0].MAC)
	}
}

func TestParseDarwinARP(t *testing.T) {
	output := "router.lan (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]\n" +
		"? (192.168.1.2) at (incomplete) on en0 ifscope [ethernet]\n"

	entries := ParseDarwinARP(output)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (incomplete should be skipped)", len(entries))
	}
	if entries[0].IP != "192.168.1.1" || entries[0].Interface != "en0" {
		t.Fatalf("got %+v", entries[0])
	}
}
