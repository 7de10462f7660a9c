package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Register identifies a MIPS general-purpose register.
type Register uint8

// General-purpose registers, in encoding order.
const (
	RegR0 Register = iota // Hardwired zero
	RegAT
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegK0
	RegK1
	RegGP
	RegSP
	RegFP
	RegRA

	// RegAny is the don't-care placeholder used in signature templates.
	// It encodes as register 0.
	RegAny
)

// NumGPR is the number of architectural general-purpose registers.
const NumGPR = 32

var registerNames = [...]string{
	"R0", "AT", "V0", "V1", "A0", "A1", "A2", "A3",
	"T0", "T1", "T2", "T3", "T4", "T5", "T6", "T7",
	"S0", "S1", "S2", "S3", "S4", "S5", "S6", "S7",
	"T8", "T9", "K0", "K1", "GP", "SP", "FP", "RA",
	"__",
}

// String returns the conventional upper-case register name.
func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// Field returns the 5-bit encoding of the register. RegAny encodes as 0.
func (r Register) Field() uint32 {
	if r >= RegAny {
		return 0
	}
	return uint32(r)
}

// ParseRegister parses a register name such as "a1", "$A1", "sp", "s8" or
// "r0". Numeric forms "$5" and "r5" are accepted as well.
func ParseRegister(name string) (Register, error) {
	n := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(name), "$"))
	switch n {
	case "ZERO":
		return RegR0, nil
	case "S8":
		return RegFP, nil
	}
	for i, rn := range registerNames {
		if rn == n {
			return Register(i), nil
		}
	}

	if num, err := strconv.Atoi(strings.TrimPrefix(n, "R")); err == nil &&
		num >= 0 && num < NumGPR {
		return Register(num), nil
	}

	return RegAny, fmt.Errorf("unknown register %q", name)
}

var cop0Names = [...]string{
	"Index", "Random", "EntryLo0", "EntryLo1", "Context", "PageMask", "Wired", "Reserved7",
	"BadVAddr", "Count", "EntryHi", "Compare", "Status", "Cause", "EPC", "PRId",
	"Config", "LLAddr", "WatchLo", "WatchHi", "XContext", "Reserved21", "Reserved22", "Reserved23",
	"Reserved24", "Reserved25", "PErr", "CacheErr", "TagLo", "TagHi", "ErrorEPC", "Reserved31",
}

// Cop0Name returns the name of a coprocessor 0 register.
func Cop0Name(reg uint8) string {
	if int(reg) < len(cop0Names) {
		return cop0Names[reg]
	}
	return fmt.Sprintf("Cop0(%d)", reg)
}

// Well-known coprocessor 0 registers.
const (
	Cop0Count  uint8 = 9
	Cop0Status uint8 = 12
)
