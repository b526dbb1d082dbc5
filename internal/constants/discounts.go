package constants

// Discount forgives Minutes of any stop whose text contains Match.
// Tables are ordered: when several entries match, the last one wins.
type Discount struct {
	Match   string `yaml:"match"`
	Minutes int    `yaml:"minutes"`
}

var EfficiencyDiscounts = []Discount{
	{Match: "Café e Ginástica Laboral", Minutes: 10},
	{Match: "Reunião", Minutes: 30},
	{Match: "Treinamento", Minutes: 60},
	{Match: "Refeição", Minutes: 65},
}

var EfficiencyExempt = []string{
	"Sem Produção",
	"Backup",
	"Parada Programada",
	"Domingo/Feriado",
	"Limpeza Industrial",
}

var PerformanceDiscounts = []Discount{
	{Match: "Café e Ginástica Laboral", Minutes: 10},
	{Match: "Setup", Minutes: 15},
	{Match: "Limpeza", Minutes: 15},
	{Match: "Troca de Produto", Minutes: 20},
}

var PerformanceExempt = []string{
	"Sem Produção",
	"Backup",
	"Parada Programada",
	"Domingo/Feriado",
	"Limpeza Industrial",
	"Refeição",
	"Reunião",
	"Treinamento",
	"Manutenção Preventiva",
}

var RepairDiscounts = []Discount{
	{Match: "Ajustes", Minutes: 5},
	{Match: "Manutenção Mecânica", Minutes: 10},
	{Match: "Manutenção Elétrica", Minutes: 10},
}

var RepairExempt = []string{
	"Manutenção Preventiva",
}

// RepairAffects lists the stops the repair indicator looks at.
var RepairAffects = []string{
	"Ajustes",
	"Manutenção",
	"Quebra",
	"Elétrica",
	"Mecânica",
}
