package constants

// Stop reason ids as registered in the operator terminal.
const (
	ReasonAdjustments     = 1
	ReasonMechanical      = 2
	ReasonCleaning        = 3
	ReasonSetup           = 4
	ReasonMissingMaterial = 5
	ReasonQuality         = 6
	ReasonMeal            = 7
	ReasonMeeting         = 8
	ReasonTraining        = 9
	ReasonBackup          = 10
	ReasonProductChange   = 11
	ReasonScheduledStop   = 12
	ReasonElectrical      = 13
	ReasonOther           = 14
)

const (
	ScheduledStop = "Parada Programada"
	Cleaning      = "Limpeza"
	SundayHoliday = "Domingo/Feriado"
)

// BenignReasons are scheduled-stop-like codes. A machine self-test right after one of
// them is not a stop.
var BenignReasons = map[int]bool{
	ReasonCleaning:      true,
	ReasonBackup:        true,
	ReasonScheduledStop: true,
}

// FullShiftReasons snap to a whole shift when they cover almost all of it.
var FullShiftReasons = map[string]bool{
	ScheduledStop: true,
	Cleaning:      true,
}

// Typo is a literal replacement applied to free text before fuzzy matching.
type Typo struct {
	Wrong string
	Right string
}

var ProblemTypos = []Typo{
	{Wrong: "Beckup", Right: "Backup"},
	{Wrong: "beckup", Right: "backup"},
	{Wrong: "Bakup", Right: "Backup"},
	{Wrong: "bakup", Right: "backup"},
	{Wrong: "Manutencao", Right: "Manutenção"},
	{Wrong: "manutencao", Right: "manutenção"},
	{Wrong: "Mecanica", Right: "Mecânica"},
	{Wrong: "mecanica", Right: "mecânica"},
	{Wrong: "Eletrica", Right: "Elétrica"},
	{Wrong: "eletrica", Right: "elétrica"},
	{Wrong: "Maquina", Right: "Máquina"},
	{Wrong: "maquina", Right: "máquina"},
}
