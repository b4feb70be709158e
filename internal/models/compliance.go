package models

// Framework identifies one of the supported control-mapping tables.
type Framework string

const (
	FrameworkGeneric    Framework = "generic"
	FrameworkNIST80053  Framework = "nist-800-53"
	FrameworkNIST800171 Framework = "nist-800-171"
)

// Frameworks lists every supported framework in matrix column order.
var Frameworks = []Framework{FrameworkGeneric, FrameworkNIST80053, FrameworkNIST800171}

// ControlStatus is the aggregate compliance status of a single control.
type ControlStatus string

const (
	ControlCompliant     ControlStatus = "COMPLIANT"
	ControlNonCompliant  ControlStatus = "NON_COMPLIANT"
	ControlIndeterminate ControlStatus = "INDETERMINATE"
	ControlUnknown       ControlStatus = "UNKNOWN"

	// ControlAbsent marks a matrix cell whose control does not exist in that
	// framework's table at all. It is distinct from ControlUnknown.
	ControlAbsent ControlStatus = ""
)

// ControlRollup is the per-framework aggregate for one control id.
// CheckIDs lists every check mapped to the control in the framework table,
// whether or not it ran. The counters only include executed results.
type ControlRollup struct {
	Framework Framework     `json:"framework"`
	ControlID string        `json:"control_id"`
	Status    ControlStatus `json:"status"`
	CheckIDs  []string      `json:"check_ids"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Skipped   int           `json:"skipped"`
}

// MatrixRow is one control id across every framework.
// Cells holds one entry per CrossFrameworkMatrix.Frameworks column, in order.
type MatrixRow struct {
	ControlID string          `json:"control_id"`
	Cells     []ControlStatus `json:"cells"`
}

// CrossFrameworkMatrix shows each control's status in every framework.
type CrossFrameworkMatrix struct {
	Frameworks []Framework `json:"frameworks"`
	Rows       []MatrixRow `json:"rows"`
}
