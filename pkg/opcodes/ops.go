package opcodes

// Opcode values follow the EV3 firmware numbering.
const (
	OpERROR         byte = 0x00
	OpNOP           byte = 0x01
	OpPROGRAM_STOP  byte = 0x02
	OpPROGRAM_START byte = 0x03
	OpOBJECT_STOP   byte = 0x04
	OpOBJECT_START  byte = 0x05
	OpOBJECT_TRIG   byte = 0x06
	OpOBJECT_WAIT   byte = 0x07
	OpRETURN        byte = 0x08
	OpCALL          byte = 0x09
	OpOBJECT_END    byte = 0x0A
	OpSLEEP         byte = 0x0B

	OpADD8  byte = 0x10
	OpADD16 byte = 0x11
	OpSUB8  byte = 0x14
	OpSUB16 byte = 0x15
	OpMUL8  byte = 0x18
	OpMUL16 byte = 0x19
	OpDIV8  byte = 0x1C
	OpDIV16 byte = 0x1D
	OpOR8   byte = 0x20
	OpAND8  byte = 0x24
	OpXOR8  byte = 0x28

	OpINIT_BYTES byte = 0x2F
	OpMOVE8_8    byte = 0x30
	OpMOVE16_16  byte = 0x35

	OpJR       byte = 0x40
	OpJR_FALSE byte = 0x41
	OpJR_TRUE  byte = 0x42
	OpCP_LT8   byte = 0x44
	OpCP_GT8   byte = 0x48
	OpCP_EQ8   byte = 0x4C
	OpCP_NEQ8  byte = 0x50

	OpTIMER_WAIT  byte = 0x85
	OpTIMER_READY byte = 0x86
	OpSOUND       byte = 0x94
	OpSOUND_TEST  byte = 0x95

	OpOUTPUT_STOP  byte = 0xA3
	OpOUTPUT_POWER byte = 0xA4
	OpOUTPUT_START byte = 0xA6
)

// NumRegisters is the number of addressable registers, r0 through r31.
const NumRegisters = 32

// ev3Entries lists the EV3 instruction set. A fresh slice is returned on
// every call so no caller can alter another's table.
func ev3Entries() []Entry {
	rrr := []OperandKind{Register, Register, Register}
	return []Entry{
		{"err", OpERROR, nil},
		{"nop", OpNOP, nil},
		{"program_stop", OpPROGRAM_STOP, []OperandKind{ImmU8}},
		{"program_start", OpPROGRAM_START, []OperandKind{ImmU8, LabelRef}},
		{"object_stop", OpOBJECT_STOP, []OperandKind{ImmU16}},
		{"object_start", OpOBJECT_START, []OperandKind{ImmU16}},
		{"object_trig", OpOBJECT_TRIG, []OperandKind{ImmU16}},
		{"object_wait", OpOBJECT_WAIT, []OperandKind{ImmU16}},
		{"return", OpRETURN, nil},
		{"call", OpCALL, []OperandKind{LabelRef}},
		{"object_end", OpOBJECT_END, nil},
		{"sleep", OpSLEEP, nil},

		{"add8", OpADD8, rrr},
		{"add16", OpADD16, rrr},
		{"sub8", OpSUB8, rrr},
		{"sub16", OpSUB16, rrr},
		{"mul8", OpMUL8, rrr},
		{"mul16", OpMUL16, rrr},
		{"div8", OpDIV8, rrr},
		{"div16", OpDIV16, rrr},
		{"or8", OpOR8, rrr},
		{"and8", OpAND8, rrr},
		{"xor8", OpXOR8, rrr},

		{"init_bytes", OpINIT_BYTES, []OperandKind{Register, ImmU8}},
		{"move8_8", OpMOVE8_8, []OperandKind{Register, Register}},
		{"move16_16", OpMOVE16_16, []OperandKind{Register, Register}},

		{"jr", OpJR, []OperandKind{LabelRef}},
		{"jr_false", OpJR_FALSE, []OperandKind{Register, LabelRef}},
		{"jr_true", OpJR_TRUE, []OperandKind{Register, LabelRef}},
		{"cp_lt8", OpCP_LT8, rrr},
		{"cp_gt8", OpCP_GT8, rrr},
		{"cp_eq8", OpCP_EQ8, rrr},
		{"cp_neq8", OpCP_NEQ8, rrr},

		{"timer_wait", OpTIMER_WAIT, []OperandKind{ImmU16, Register}},
		{"timer_ready", OpTIMER_READY, []OperandKind{Register}},
		{"sound_tone", OpSOUND, []OperandKind{ImmU8, ImmU16, ImmU16}},
		{"sound_test", OpSOUND_TEST, []OperandKind{Register}},

		{"output_stop", OpOUTPUT_STOP, []OperandKind{ImmU8, ImmU8, ImmU8}},
		{"output_power", OpOUTPUT_POWER, []OperandKind{ImmU8, ImmU8, ImmU8}},
		{"output_start", OpOUTPUT_START, []OperandKind{ImmU8, ImmU8}},
	}
}
