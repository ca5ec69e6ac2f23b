// Package bytecode implements the instruction encoding described in §4.2:
// a fixed one-byte opcode followed by an opcode-specific operand layout,
// plus the operand primitive codecs used by every instruction.
package bytecode

// Opcode is the fixed, total mnemonic table. Byte value 0 is always Nop,
// matching the requirement that opcode byte 0 is NOP.
type Opcode byte

const (
	Nop Opcode = iota

	// Arithmetic
	Add
	Sub
	Mul
	Div

	// Comparisons
	Lt
	Lte
	Gt
	Gte
	Eq

	// Conversions
	Itof
	Ftoi
	Stoi
	Stof

	// Text operations
	TextEq
	TextAt
	TextSub
	TextLength
	TextCommonPrefix
	TextCommonSuffix
	TextConcat

	// Vector operations
	VecCtor
	VecInsert
	VecPush
	VecPop
	VecAt
	VecLen

	// Boolean
	Bool
	Not
	And
	Or

	// Bit operations
	Bits
	BitAnd
	BitOr
	BitXor
	BitNot
	BitsWidth
	BitAt
	BitSet
	Shl
	Shr
	Ashl
	Ashr
	Rol
	Ror
	BitsAdd
	BitsSub
	BitsMul
	BitsDiv
	BitsEq
	BitsLt
	BitsLte
	BitsGt
	BitsGte

	// Copy/move family
	Move
	Copy
	Ptr
	PtrLive
	Swap
	Delete
	IsNull

	// Closure family
	Capture
	CaptureCopy
	CaptureMove
	MakeClosure
	MakeFunction

	// Call family
	Frame
	Param
	Pamv
	Call
	TailCall
	Defer
	Arg
	AllocateRegisters
	Return

	// Concurrency
	Process
	Self
	Join
	Send
	Receive
	Watchdog

	// Control
	Jump
	If

	// Exception
	Throw
	Catch
	Draw
	Try
	Enter
	Leave

	// Atom
	AtomOp

	// Struct
	StructNew
	StructGet
	StructSet
	StructRemove
	StructKeys

	// Import
	Import

	// I/O
	IOSubmit
	IOWait
	IOCancel
	IOPortOp

	// Register set switch
	Ress

	// Misc
	Halt
	Print
	Echo

	opcodeCount
)

var mnemonics = [opcodeCount]string{
	Nop: "nop", Add: "add", Sub: "sub", Mul: "mul", Div: "div",
	Lt: "lt", Lte: "lte", Gt: "gt", Gte: "gte", Eq: "eq",
	Itof: "itof", Ftoi: "ftoi", Stoi: "stoi", Stof: "stof",
	TextEq: "texteq", TextAt: "textat", TextSub: "textsub",
	TextLength: "textlength", TextCommonPrefix: "textcommonprefix",
	TextCommonSuffix: "textcommonsuffix", TextConcat: "textconcat",
	VecCtor: "vec", VecInsert: "vinsert", VecPush: "vpush",
	VecPop: "vpop", VecAt: "vat", VecLen: "vlen",
	Bool: "bool", Not: "not", And: "and", Or: "or",
	Bits: "bits", BitAnd: "bitand", BitOr: "bitor", BitXor: "bitxor",
	BitNot: "bitnot", BitsWidth: "bitswidth", BitAt: "bitat", BitSet: "bitset",
	Shl: "shl", Shr: "shr", Ashl: "ashl", Ashr: "ashr", Rol: "rol", Ror: "ror",
	BitsAdd: "bitsadd", BitsSub: "bitssub", BitsMul: "bitsmul", BitsDiv: "bitsdiv",
	BitsEq: "bitseq", BitsLt: "bitslt", BitsLte: "bitslte", BitsGt: "bitsgt", BitsGte: "bitsgte",
	Move: "move", Copy: "copy", Ptr: "ptr", PtrLive: "ptrlive",
	Swap: "swap", Delete: "delete", IsNull: "isnull",
	Capture: "capture", CaptureCopy: "capturecopy", CaptureMove: "capturemove",
	MakeClosure: "closure", MakeFunction: "function",
	Frame: "frame", Param: "param", Pamv: "pamv", Call: "call",
	TailCall: "tailcall", Defer: "defer", Arg: "arg",
	AllocateRegisters: "allocate_registers", Return: "return",
	Process: "process", Self: "self", Join: "join", Send: "send",
	Receive: "receive", Watchdog: "watchdog",
	Jump: "jump", If: "if",
	Throw: "throw", Catch: "catch", Draw: "draw", Try: "try",
	Enter: "enter", Leave: "leave",
	AtomOp: "atom",
	StructNew: "struct", StructGet: "structat", StructSet: "structset",
	StructRemove: "structremove", StructKeys: "structkeys",
	Import: "import",
	IOSubmit: "io_submit", IOWait: "io_wait", IOCancel: "io_cancel", IOPortOp: "io_port",
	Ress: "ress",
	Halt: "halt", Print: "print", Echo: "echo",
}

// String gives the opcode's mnemonic, used in disassembly and diagnostics.
func (op Opcode) String() string {
	if int(op) < 0 || op >= opcodeCount {
		return "invalid"
	}
	return mnemonics[op]
}

// Valid reports whether op is a recognised opcode.
func (op Opcode) Valid() bool { return op < opcodeCount }

// IsSuspending reports whether the instruction can suspend the issuing
// process, per §5's suspension-point list: receive, join, io_wait, and
// foreign-call round-trips (the latter handled at the call sites, not here).
func (op Opcode) IsSuspending() bool {
	switch op {
	case Receive, Join, IOWait:
		return true
	default:
		return false
	}
}
