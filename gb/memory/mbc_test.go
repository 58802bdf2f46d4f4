package memory

import "testing"

// newTestMBC builds a mapper over a ROM whose every bank is stamped with
// its own index at offset 0 for easy identification.
func newTestMBC(t *testing.T, cartType, romSizeCode, ramSizeCode byte) *MBC {
	t.Helper()
	rom := makeROM(cartType, romSizeCode, ramSizeCode)
	for bank := 0; bank*romBankSize < len(rom); bank++ {
		rom[bank*romBankSize] = byte(bank)
	}
	// Restamping bank 0 clobbers nothing in the header region.
	cart, err := NewCartridgeWithData(rom)
	if err != nil {
		t.Fatal(err)
	}
	return NewMBC(cart)
}

func TestMBC1BankSwitching(t *testing.T) {
	mbc := newTestMBC(t, 0x01, 0x04, 0x00) // 32 banks

	if got := mbc.Read(0x4000); got != 1 {
		t.Errorf("default bank = %d, want 1", got)
	}

	mbc.Write(0x2000, 0x07)
	if got := mbc.Read(0x4000); got != 7 {
		t.Errorf("bank after select = %d, want 7", got)
	}

	// Writing zero selects bank 1.
	mbc.Write(0x2000, 0x00)
	if got := mbc.Read(0x4000); got != 1 {
		t.Errorf("bank after zero write = %d, want 1", got)
	}
}

func TestMBC1BankMaskingWrapsToImageSize(t *testing.T) {
	mbc := newTestMBC(t, 0x01, 0x01, 0x00) // 4 banks

	// Bank 0x1F on a 4-bank image wraps to 0x1F % 4 = 3.
	mbc.Write(0x2000, 0x1F)
	if got := mbc.Read(0x4000); got != 3 {
		t.Errorf("masked bank = %d, want 3", got)
	}
}

func TestMBC1AdvancedModeRemapsFixedRegion(t *testing.T) {
	mbc := newTestMBC(t, 0x01, 0x06, 0x00) // 128 banks

	mbc.Write(0x4000, 0x01) // upper bank bits
	mbc.Write(0x6000, 0x01) // advanced banking mode
	if got := mbc.Read(0x0000); got != 0x20 {
		t.Errorf("fixed region bank = %#x, want 0x20", got)
	}
	if got := mbc.Read(0x4000); got != 0x21 {
		t.Errorf("switchable region bank = %#x, want 0x21", got)
	}
}

func TestRAMEnableGate(t *testing.T) {
	mbc := newTestMBC(t, 0x03, 0x01, 0x02) // MBC1 + 8KB RAM

	mbc.Write(0xA000, 0x42)
	if got := mbc.Read(0xA000); got != 0xFF {
		t.Errorf("disabled RAM read = %#x, want 0xFF", got)
	}

	mbc.Write(0x0000, 0x0A)
	mbc.Write(0xA000, 0x42)
	if got := mbc.Read(0xA000); got != 0x42 {
		t.Errorf("enabled RAM read = %#x, want 0x42", got)
	}

	mbc.Write(0x0000, 0x00)
	if got := mbc.Read(0xA000); got != 0xFF {
		t.Errorf("re-disabled RAM read = %#x, want 0xFF", got)
	}
}

func TestMBC2NibbleRAM(t *testing.T) {
	mbc := newTestMBC(t, 0x06, 0x01, 0x00)

	mbc.Write(0x0000, 0x0A) // address bit 8 clear: RAM enable
	mbc.Write(0xA000, 0xFF)
	if got := mbc.Read(0xA000); got != 0xFF {
		t.Errorf("nibble read = %#x, want 0xFF", got)
	}
	mbc.Write(0xA001, 0x05)
	if got := mbc.Read(0xA001); got != 0xF5 {
		t.Errorf("nibble read = %#x, want 0xF5 (upper nibble open bus)", got)
	}
	// The 512 bytes echo through the whole window.
	if got := mbc.Read(0xA201); got != 0xF5 {
		t.Errorf("echoed read = %#x, want 0xF5", got)
	}
}

func TestMBC2ROMBankViaAddressBit(t *testing.T) {
	mbc := newTestMBC(t, 0x05, 0x02, 0x00) // 8 banks

	mbc.Write(0x0100, 0x03) // address bit 8 set: bank select
	if got := mbc.Read(0x4000); got != 3 {
		t.Errorf("bank = %d, want 3", got)
	}
}

func TestMBC3RTCLatch(t *testing.T) {
	mbc := newTestMBC(t, 0x0F, 0x01, 0x00)
	mbc.Write(0x0000, 0x0A)

	// Advance the clock 90 emulated seconds.
	for i := 0; i < 90; i++ {
		mbc.Tick(rtcTickCycles)
	}

	mbc.Write(0x6000, 0x00)
	mbc.Write(0x6000, 0x01)

	mbc.Write(0x4000, 0x08) // RTC seconds register
	if got := mbc.Read(0xA000); got != 30 {
		t.Errorf("latched seconds = %d, want 30", got)
	}
	mbc.Write(0x4000, 0x09) // RTC minutes register
	if got := mbc.Read(0xA000); got != 1 {
		t.Errorf("latched minutes = %d, want 1", got)
	}

	// The latch holds while the live clock keeps running.
	mbc.Tick(rtcTickCycles)
	mbc.Write(0x4000, 0x08)
	if got := mbc.Read(0xA000); got != 30 {
		t.Errorf("latched seconds moved to %d, want 30", got)
	}
}

func TestMBC3RTCHaltStopsClock(t *testing.T) {
	mbc := newTestMBC(t, 0x0F, 0x01, 0x00)
	mbc.Write(0x0000, 0x0A)

	mbc.Write(0x4000, 0x0C) // day-high register, bit 6 halts
	mbc.Write(0xA000, 0x40)
	mbc.Tick(rtcTickCycles * 10)

	mbc.Write(0x6000, 0x00)
	mbc.Write(0x6000, 0x01)
	mbc.Write(0x4000, 0x08)
	if got := mbc.Read(0xA000); got != 0 {
		t.Errorf("halted clock advanced to %d seconds", got)
	}
}

func TestMBC5NineBitBank(t *testing.T) {
	mbc := newTestMBC(t, 0x19, 0x08, 0x00) // 512 banks

	mbc.Write(0x2000, 0x34)
	mbc.Write(0x3000, 0x01)
	if got := mbc.Read(0x4000); got != 0x34 {
		// Bank 0x134 stamps its low byte.
		t.Errorf("bank low byte = %#x, want 0x34", got)
	}

	// Unlike MBC1, bank 0 is selectable.
	mbc.Write(0x2000, 0x00)
	mbc.Write(0x3000, 0x00)
	if got := mbc.Read(0x4000); got != 0 {
		t.Errorf("bank = %d, want 0", got)
	}
}

func TestBatteryRAMRoundTrip(t *testing.T) {
	mbc := newTestMBC(t, 0x03, 0x01, 0x02)
	mbc.Write(0x0000, 0x0A)
	mbc.Write(0xA010, 0x77)

	saved := make([]byte, len(mbc.RAMData()))
	copy(saved, mbc.RAMData())

	fresh := newTestMBC(t, 0x03, 0x01, 0x02)
	fresh.LoadRAMData(saved)
	fresh.Write(0x0000, 0x0A)
	if got := fresh.Read(0xA010); got != 0x77 {
		t.Errorf("restored RAM read = %#x, want 0x77", got)
	}
}
