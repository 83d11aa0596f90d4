package board

// edgeCard describes a bus card whose contacts all sit on the bottom edge
// at the common 0.1" pitch.
type edgeCard struct {
	name          string
	width, height float64
	perSide       int
	margin        float64
	contactHeight float64
	signals       map[int]string
}

func (c edgeCard) spec() *BaseSpec {
	return &BaseSpec{
		SpecName:     c.name,
		WidthInches:  c.width,
		HeightInches: c.height,
		Contacts: &ContactSpec{
			Edge:         EdgeBottom,
			Count:        c.perSide,
			PitchInches:  0.1,
			WidthInches:  0.05,
			HeightInches: c.contactHeight,
			MarginInches: c.margin,
		},
		Signals: c.signals,
	}
}

// rows assigns the signals of connector rows to pin numbers. Component
// side rows come first, each continuing the numbering of the previous one;
// the solder side starts at perSide+1.
func rows(perSide int, component, solder [][]string) map[int]string {
	out := make(map[int]string)
	fill := func(first int, rs [][]string) {
		pin := first
		for _, r := range rs {
			for _, s := range r {
				out[pin] = s
				pin++
			}
		}
	}
	fill(1, component)
	fill(perSide+1, solder)
	return out
}

// ISA rows A and B (8-bit slot), C and D (16-bit extension).
var (
	isaRowA = []string{
		"IOCHCK*", "SD7", "SD6", "SD5", "SD4", "SD3", "SD2", "SD1", "SD0", "IOCHRDY",
		"AEN", "SA19", "SA18", "SA17", "SA16", "SA15", "SA14", "SA13", "SA12", "SA11",
		"SA10", "SA9", "SA8", "SA7", "SA6", "SA5", "SA4", "SA3", "SA2", "SA1", "SA0",
	}
	isaRowB = []string{
		"GND", "RESET", "+5V", "IRQ2", "-5V", "DRQ2", "-12V", "0WS*", "+12V", "GND",
		"SMEMW*", "SMEMR*", "IOW*", "IOR*", "DACK3*", "DRQ3", "DACK1*", "DRQ1", "REFRESH*", "CLK",
		"IRQ7", "IRQ6", "IRQ5", "IRQ4", "IRQ3", "DACK2*", "TC", "BALE", "+5V", "OSC", "GND",
	}
	isaRowC = []string{
		"SBHE*", "LA23", "LA22", "LA21", "LA20", "LA19", "LA18", "LA17", "MEMR*", "MEMW*",
		"SD8", "SD9", "SD10", "SD11", "SD12", "SD13", "SD14", "SD15",
	}
	isaRowD = []string{
		"MEMCS16*", "IOCS16*", "IRQ10", "IRQ11", "IRQ12", "IRQ15", "IRQ14", "DACK0*", "DRQ0", "DACK5*",
		"DRQ5", "DACK6*", "DRQ6", "DACK7*", "DRQ7", "+5V", "MASTER*", "GND",
	}
)

// ISA8Spec returns the full length 8-bit ISA card of the IBM PC, 62 contacts.
func ISA8Spec() *BaseSpec {
	return edgeCard{
		name: "8-bit ISA", width: 13.15, height: 4.2,
		perSide: 31, margin: 0.8, contactHeight: 0.32,
		signals: rows(31, [][]string{isaRowA}, [][]string{isaRowB}),
	}.spec()
}

// ISA16Spec returns the PC/AT card: the 8-bit slot plus the 36 contact
// extension, numbered A, C on the component side and B, D on the solder side.
func ISA16Spec() *BaseSpec {
	return edgeCard{
		name: "16-bit ISA", width: 13.15, height: 4.2,
		perSide: 49, margin: 0.8, contactHeight: 0.32,
		signals: rows(49, [][]string{isaRowA, isaRowC}, [][]string{isaRowB, isaRowD}),
	}.spec()
}

// MultibusP1Spec returns the Multibus I card with the 86 contact P1 connector.
func MultibusP1Spec() *BaseSpec {
	return edgeCard{name: "Multibus I (P1)", width: 12.0, height: 6.75, perSide: 43, margin: 0.9}.spec()
}

// MultibusP1P2Spec returns the Multibus I card with P1 and the 60 contact P2.
func MultibusP1P2Spec() *BaseSpec {
	return edgeCard{name: "Multibus I (P1+P2)", width: 12.0, height: 6.75, perSide: 73, margin: 0.9}.spec()
}

// ECBSpec returns the 160x100mm Eurocard of the Europe Card Bus, 64 contacts
// in the a and c rows of its DIN 41612 connector.
func ECBSpec() *BaseSpec {
	return edgeCard{name: "ECB (Europe Card Bus)", width: 6.3, height: 3.94, perSide: 32, margin: 0.6}.spec()
}

// STDBusSpec returns the 56 contact STD Bus card.
func STDBusSpec() *BaseSpec {
	return edgeCard{name: "STD Bus", width: 6.5, height: 4.5, perSide: 28, margin: 0.7}.spec()
}
