package router

// The Loupedeck+ multiplexes its eight rotary knobs over four controller
// number ranges depending on an internal display mode this system ignores:
// the knob at logical index n reports as controller n, n+8, n+16 or n+24.
// The compiler registers a knob binding under all four aliases so every
// display mode resolves to the same action.
const (
	// LoupedeckDevice is the port name the Loupedeck+ registers under.
	LoupedeckDevice = "Loupedeck+"

	loupedeckKnobCount = 8
	loupedeckAliasStep = 8
	loupedeckAliasNum  = 4

	// LoupedeckFnNote is the note number of the dedicated Fn modifier key.
	LoupedeckFnNote = 110

	// fnBankSuffix selects the alternate bank set while Fn is held.
	fnBankSuffix = "_fn"
)

// knobAliases returns the aliased controller numbers for a Loupedeck+ knob
// binding, or nil when the controller is not a knob index.
func knobAliases(controller int) []int {
	if controller < 1 || controller > loupedeckKnobCount {
		return nil
	}
	aliases := make([]int, 0, loupedeckAliasNum)
	for i := 0; i < loupedeckAliasNum; i++ {
		aliases = append(aliases, controller+i*loupedeckAliasStep)
	}
	return aliases
}
