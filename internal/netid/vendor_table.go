package netid

// vendorTable maps a canonical OUI ("XX:XX:XX") to its registered
// manufacturer name. This is a small, representative slice of the IEEE OUI
// registry covering the vendors spec.md's classification tables reference;
// it is not exhaustive.
var vendorTable = map[string]string{
	"00:1A:2B": "Cisco Systems, Inc.",
	"00:0C:29": "VMware, Inc.",
	"00:50:56": "VMware, Inc.",
	"08:00:27": "PCS Systemtechnik GmbH (VirtualBox)",
	"00:1C:42": "Parallels, Inc.",
	"00:05:69": "VMware, Inc.",
	"52:54:00": "QEMU/KVM",
	"00:15:5D": "Microsoft Corporation (Hyper-V)",
	"00:16:3E": "Xen Project",

	"B8:27:EB": "Raspberry Pi Foundation",
	"DC:A6:32": "Raspberry Pi Trading Ltd",
	"E4:5F:01": "Raspberry Pi Trading Ltd",

	"F0:9F:C2": "Ubiquiti Networks Inc.",
	"24:A4:3C": "Ubiquiti Networks Inc.",
	"78:8A:20": "Ubiquiti Networks Inc.",
	"B4:FB:E4": "Ubiquiti Networks Inc.",

	"A4:02:B9": "Eero LLC",
	"B0:7F:B9": "Eero LLC",

	"00:17:88": "Philips Lighting BV (Hue)",
	"EC:B5:FA": "Philips Lighting BV (Hue)",

	"34:7E:5C": "Apple, Inc.",
	"3C:15:C2": "Apple, Inc.",
	"F0:18:98": "Apple, Inc.",
	"A4:83:E7": "Apple, Inc.",
	"BC:92:6B": "Apple, Inc.",
	"D0:E1:40": "Apple, Inc.",
	"AC:BC:32": "Apple, Inc.",

	"B8:27:45": "Samsung Electronics Co.,Ltd",
	"5C:0A:5B": "Samsung Electronics Co.,Ltd",
	"C8:BA:94": "Samsung Electronics Co.,Ltd",

	"D8:EB:97": "Amazon Technologies Inc.",
	"74:C2:46": "Amazon Technologies Inc.",
	"AC:63:BE": "Amazon Technologies Inc.",
	"F0:27:2D": "Amazon Technologies Inc.",
	"44:65:0D": "Amazon Technologies Inc.",

	"B0:C5:54": "Sonos, Inc.",
	"5C:AA:FD": "Sonos, Inc.",
	"94:9F:3E": "Sonos, Inc.",

	"DC:44:6D": "Google, Inc.",
	"F4:F5:D8": "Google, Inc.",
	"F4:F5:E8": "Google, Inc.",
	"94:EB:2C": "Google, Inc.",

	"00:11:32": "Synology Incorporated",
	"00:08:9B": "QNAP Systems, Inc.",

	"00:18:39": "Brother Industries, Ltd.",
	"00:80:77": "Brother Industries, Ltd.",
	"08:00:37": "Canon Inc.",
	"00:00:85": "Canon Inc.",
	"00:26:AB": "Seiko Epson Corporation",

	"00:40:8C": "Axis Communications AB",
	"AC:CC:8E": "Hangzhou Hikvision Digital Technology",
	"4C:11:BF": "Hangzhou Hikvision Digital Technology",
	"3C:EF:8C": "Zhejiang Dahua Technology",
	"90:02:A9": "Zhejiang Dahua Technology",
	"EC:71:DB": "Wyze Labs, Inc.",
	"2C:AA:8E": "Ring LLC",

	"00:1D:7E": "Cisco-Linksys, LLC",
	"C0:56:27": "NETGEAR",
	"A0:40:A0": "NETGEAR",
	"00:14:6C": "NETGEAR",
	"30:B5:C2": "TP-LINK TECHNOLOGIES CO.,LTD.",
	"50:C7:BF": "TP-LINK TECHNOLOGIES CO.,LTD.",
	"14:CC:20": "TP-LINK TECHNOLOGIES CO.,LTD.",
	"AC:84:C6": "ASUSTek COMPUTER INC.",
	"1C:87:2C": "ASUSTek COMPUTER INC.",
	"CC:2D:E0": "D-Link Corporation",
	"00:22:B0": "D-Link Corporation",
	"4C:B1:CD": "MikroTikls SIA",
	"E4:8D:8C": "MikroTikls SIA",

	"00:11:20": "Juniper Networks",
	"00:1F:12": "Aruba Networks",
	"9C:1C:12": "Aruba Networks",
	"24:DE:C6": "Ruckus Wireless",

	"AC:DE:48": "Dell Inc.",
	"00:14:22": "Dell Inc.",
	"00:21:9B": "Lenovo",
	"54:EE:75": "Hewlett Packard Enterprise",
	"3C:D9:2B": "Hewlett Packard Enterprise",
}
