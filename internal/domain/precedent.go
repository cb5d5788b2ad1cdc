package domain

import "fmt"

// Judge представляет участника коллегии, вынесшей решение.
type Judge struct {
	Role     string
	Name     string
	Position string
}

// Precedent представляет нормализованную запись о судебном прецеденте.
// Общая форма для обоих источников: библиотеки Верховного суда (JSON)
// и информационного центра законодательства (XML).
// Идентификатор задается при создании и не меняется.
type Precedent struct {
	id int64

	Title           string
	CaseCode        string
	Court           Court
	Category        CaseCategory
	DecisionDate    Date
	PublicationDate Date
	Kind            DecisionKind
	Abstract        string
	Summary         string
	Judges          []Judge
}

// NewPrecedent создает прецедент с заданным идентификатором.
// Остальные поля принимают значения по умолчанию: Unknown для перечислений,
// пустые строки и пустой список судей.
func NewPrecedent(id int64) Precedent {
	return Precedent{
		id:     id,
		Judges: []Judge{},
	}
}

// ID возвращает идентификатор прецедента в рамках источника.
func (p Precedent) ID() int64 { return p.id }

// Citation возвращает полную ссылку на решение в принятой форме:
// "{суд} {дата} {связка} {номер дела} {вид решения}".
func (p Precedent) Citation() string {
	return Citation(p)
}

// Citation формирует ссылку на решение. Связка "선고" используется для
// Judgement и EnBank, "자" для всех остальных видов.
// Для Unknown метка вида пустая, но суд, дата и номер дела сохраняются.
func Citation(p Precedent) string {
	return fmt.Sprintf("%s %s %s %s %s",
		p.Court,
		p.DecisionDate,
		p.Kind.Connector(),
		p.CaseCode,
		p.Kind.Label(),
	)
}

// JudgeNames возвращает имена судей в исходном порядке.
func (p Precedent) JudgeNames() []string {
	names := make([]string, 0, len(p.Judges))
	for _, j := range p.Judges {
		names = append(names, j.Name)
	}
	return names
}

// Query описывает параметры одного запуска загрузки из источника.
// Credential и Court используются только источником XML.
type Query struct {
	Limit      int
	Credential string
	Court      Court
}
