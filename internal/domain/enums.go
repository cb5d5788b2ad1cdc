package domain

import "strings"

const supremeCourtName = "대법원"

// Court представляет суд, вынесший решение: Верховный суд
// либо именованный суд любого другого уровня.
type Court struct {
	supreme bool
	name    string
}

// SupremeCourt - Верховный суд (대법원).
var SupremeCourt = Court{supreme: true, name: supremeCourtName}

// NamedCourt возвращает суд с произвольным названием.
func NamedCourt(name string) Court {
	return Court{name: name}
}

// ParseCourt сопоставляет название суда из источника с вариантом Court.
// Функция тотальна: любая строка кроме "대법원" дает NamedCourt.
func ParseCourt(raw string) Court {
	name := strings.TrimSpace(raw)
	if name == supremeCourtName {
		return SupremeCourt
	}
	return NamedCourt(name)
}

// IsSupreme сообщает, является ли суд Верховным.
func (c Court) IsSupreme() bool { return c.supreme }

// Name возвращает название суда.
func (c Court) Name() string { return c.name }

func (c Court) String() string { return c.name }

// CaseCategory - категория дела из закрытого набора источника.
type CaseCategory int

const (
	CategoryUnknown CaseCategory = iota
	CategoryCivil
	CategoryCriminal
	CategoryAdministrative
	CategoryTax
	CategoryFamily
	CategoryPatent
)

var categoryByName = map[string]CaseCategory{
	"민사":   CategoryCivil,
	"형사":   CategoryCriminal,
	"일반행정": CategoryAdministrative,
	"행정":   CategoryAdministrative,
	"조세":   CategoryTax,
	"세무":   CategoryTax,
	"가사":   CategoryFamily,
	"특허":   CategoryPatent,
}

// ParseCaseCategory никогда не возвращает ошибку: нераспознанные
// значения превращаются в CategoryUnknown.
func ParseCaseCategory(raw string) CaseCategory {
	if c, ok := categoryByName[strings.TrimSpace(raw)]; ok {
		return c
	}
	return CategoryUnknown
}

// Label возвращает название категории; для Unknown - пустую строку.
func (c CaseCategory) Label() string {
	switch c {
	case CategoryCivil:
		return "민사"
	case CategoryCriminal:
		return "형사"
	case CategoryAdministrative:
		return "일반행정"
	case CategoryTax:
		return "조세"
	case CategoryFamily:
		return "가사"
	case CategoryPatent:
		return "특허"
	default:
		return ""
	}
}

func (c CaseCategory) String() string { return c.Label() }

// DecisionKind - процессуальная форма решения.
type DecisionKind int

const (
	KindUnknown DecisionKind = iota
	KindEnBank
	KindEnBankDecision
	KindJudgement
	KindDecision
	KindOrder
)

var kindByLabel = map[string]DecisionKind{
	"전원합의체 판결": KindEnBank,
	"전원합의체 결정": KindEnBankDecision,
	"판결":       KindJudgement,
	"결정":       KindDecision,
	"명령":       KindOrder,
}

// ParseDecisionKind сопоставляет строку источника с видом решения.
// Пустые и нераспознанные значения дают KindUnknown.
func ParseDecisionKind(raw string) DecisionKind {
	if k, ok := kindByLabel[strings.TrimSpace(raw)]; ok {
		return k
	}
	return KindUnknown
}

// Label возвращает метку вида решения для ссылки.
func (k DecisionKind) Label() string {
	switch k {
	case KindEnBank:
		return "전원합의체 판결"
	case KindEnBankDecision:
		return "전원합의체 결정"
	case KindJudgement:
		return "판결"
	case KindDecision:
		return "결정"
	case KindOrder:
		return "명령"
	default:
		return ""
	}
}

// Connector возвращает связку между датой и номером дела:
// "선고" для оглашенных решений (Judgement, EnBank), иначе "자".
func (k DecisionKind) Connector() string {
	switch k {
	case KindJudgement, KindEnBank:
		return "선고"
	default:
		return "자"
	}
}

func (k DecisionKind) String() string { return k.Label() }
