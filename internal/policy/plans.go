package policy

import "fmt"

// Plan: позиция каталога. Цены в CLP, у бесплатного плана цен нет.
type Plan struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Monthly  int64    `json:"monthly,omitempty"`
	Yearly   int64    `json:"yearly,omitempty"`
	Features []string `json:"features"`
}

// Периоды оплаты.
const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Catalog: каталог планов в порядке отображения.
var Catalog = []Plan{
	{
		Code:     PlanFree,
		Name:     "Free plan",
		Features: []string{"Basic content", "Limited access"},
	},
	{
		Code:     PlanSilver,
		Name:     "Silver plan",
		Monthly:  15000,
		Yearly:   150000,
		Features: []string{"Full content", "1 monthly appointment"},
	},
	{
		Code:     PlanPremium,
		Name:     "Premium plan",
		Monthly:  25000,
		Yearly:   250000,
		Features: []string{"Unlimited appointments", "Advanced material"},
	},
	{
		Code:     PlanStudent,
		Name:     "Student plan",
		Monthly:  9900,
		Yearly:   99000,
		Features: []string{"Full content", "Appointments", "Requires institutional email"},
	},
}

// Lookup ищет план по коду.
func Lookup(code string) (Plan, bool) {
	for _, p := range Catalog {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

// Price возвращает цену плана за период. У бесплатного плана цены нет.
func (p Plan) Price(period string) (int64, error) {
	var amount int64
	switch period {
	case PeriodMonthly, "":
		amount = p.Monthly
	case PeriodYearly:
		amount = p.Yearly
	default:
		return 0, fmt.Errorf("unknown period %q", period)
	}
	if amount == 0 {
		return 0, fmt.Errorf("plan %q is not payable", p.Code)
	}
	return amount, nil
}

// Notices: сообщения клиенту на странице уведомлений в зависимости от плана.
func Notices(name, plan string) []string {
	notices := []string{
		"Hello " + name,
		"Check your available content",
	}
	switch plan {
	case PlanSilver:
		notices = append(notices, "You have access to more premium content")
	case PlanPremium:
		notices = append(notices, "Full access to all content")
	}
	return notices
}
