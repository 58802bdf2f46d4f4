package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

const (
	titleAddress          = 0x134
	cgbFlagAddress        = 0x143
	sgbFlagAddress        = 0x146
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	versionNumberAddress  = 0x14C
	headerChecksumAddress = 0x14D

	titleLength = 16
	headerSize  = 0x150
)

// ErrInvalidROM is returned when the input is too small to contain a
// cartridge header.
var ErrInvalidROM = errors.New("memory: ROM data too small for cartridge header")

// Cartridge holds a copy of the ROM image and the fields decoded from its
// header. The MBC kind and bank counts are fixed at creation.
type Cartridge struct {
	data []byte

	title      string
	version    uint8
	cgbFlag    uint8
	sgbFlag    uint8
	cartType   uint8
	mbcKind    MBCKind
	romBanks   int
	ramBanks   int
	hasBattery bool
	hasRTC     bool
}

// NewCartridge creates an empty open-bus cartridge, equivalent to powering
// on the console with nothing inserted. Every read returns 0xFF.
func NewCartridge() *Cartridge {
	return &Cartridge{mbcKind: MBCNone}
}

// NewCartridgeWithData parses the header and copies the ROM image. The input
// is never retained, so callers may reuse their buffer.
func NewCartridgeWithData(data []byte) (*Cartridge, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidROM, len(data))
	}

	cart := &Cartridge{
		data:     make([]byte, len(data)),
		title:    cleanTitle(data[titleAddress : titleAddress+titleLength]),
		version:  data[versionNumberAddress],
		cgbFlag:  data[cgbFlagAddress],
		sgbFlag:  data[sgbFlagAddress],
		cartType: data[cartridgeTypeAddress],
		romBanks: decodeROMBanks(data[romSizeAddress]),
		ramBanks: decodeRAMBanks(data[ramSizeAddress]),
	}
	copy(cart.data, data)

	kind, battery, rtc, err := decodeCartType(cart.cartType)
	if err != nil {
		return nil, err
	}
	cart.mbcKind = kind
	cart.hasBattery = battery
	cart.hasRTC = rtc

	// MBC2 carries its RAM on the chip itself, the header declares none.
	if kind == MBC2 {
		cart.ramBanks = 0
	}

	if !headerChecksumOK(data) {
		slog.Warn("cartridge header checksum mismatch", "title", cart.title)
	}
	slog.Debug("cartridge loaded",
		"title", cart.title,
		"type", fmt.Sprintf("0x%02X", cart.cartType),
		"romBanks", cart.romBanks,
		"ramBanks", cart.ramBanks,
		"battery", cart.hasBattery)

	return cart, nil
}

// Title returns the cleaned ASCII title from the header.
func (c *Cartridge) Title() string { return c.title }

// Loaded reports whether actual ROM data is present.
func (c *Cartridge) Loaded() bool { return len(c.data) > 0 }

// HasBattery reports whether the cartridge RAM is battery backed.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

func cleanTitle(raw []byte) string {
	runes := make([]rune, 0, len(raw))
	for _, b := range raw {
		r := rune(b)
		if r == 0 {
			r = ' '
		} else if !unicode.IsPrint(r) {
			r = '?'
		}
		runes = append(runes, r)
	}
	return strings.TrimSpace(string(runes))
}

// headerChecksumOK verifies the 8-bit header checksum over 0x134-0x14C.
func headerChecksumOK(rom []byte) bool {
	var sum byte
	for addr := 0x134; addr <= 0x14C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum == rom[headerChecksumAddress]
}

func decodeROMBanks(code byte) int {
	if code <= 0x08 {
		return 2 << code
	}
	// 0x52-0x54 are oddball multi-chip sizes; nothing in the supported
	// mapper set uses them, treat as the largest standard image.
	return 512
}

func decodeRAMBanks(code byte) int {
	switch code {
	case 0x02:
		return 1 // 8KB
	case 0x03:
		return 4 // 32KB
	case 0x04:
		return 16 // 128KB
	case 0x05:
		return 8 // 64KB
	default:
		return 0
	}
}

func decodeCartType(code byte) (kind MBCKind, battery, rtc bool, err error) {
	switch code {
	case 0x00, 0x08:
		return MBCNone, false, false, nil
	case 0x09:
		return MBCNone, true, false, nil
	case 0x01, 0x02:
		return MBC1, false, false, nil
	case 0x03:
		return MBC1, true, false, nil
	case 0x05:
		return MBC2, false, false, nil
	case 0x06:
		return MBC2, true, false, nil
	case 0x0F:
		return MBC3, true, true, nil
	case 0x10:
		return MBC3, true, true, nil
	case 0x11, 0x12:
		return MBC3, false, false, nil
	case 0x13:
		return MBC3, true, false, nil
	case 0x19, 0x1A, 0x1C, 0x1D:
		return MBC5, false, false, nil
	case 0x1B, 0x1E:
		return MBC5, true, false, nil
	default:
		return MBCNone, false, false, fmt.Errorf("memory: unsupported cartridge type 0x%02X", code)
	}
}
