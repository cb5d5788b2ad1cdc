package lawapi

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"caserss/internal/domain"
)

// Item отображает прецедент DRF API на элемент ленты.
type Item struct {
	p domain.Precedent
}

func NewItem(p domain.Precedent) Item { return Item{p: p} }

func (i Item) Title() string {
	return fmt.Sprintf("%s (%s)", i.p.Title, i.p.Citation())
}

func (i Item) Link() string {
	return fmt.Sprintf("https://casenote.kr/%s/%s",
		url.PathEscape(i.p.Court.Name()),
		url.PathEscape(i.p.CaseCode),
	)
}

// Description - текст 판시사항 как есть; пустой, если не получен.
func (i Item) Description() string { return i.p.Abstract }

func (i Item) GUID() string { return strconv.FormatInt(i.p.ID(), 10) }

func (i Item) Author() string { return i.p.Court.Name() }

func (i Item) Category() string { return i.p.Category.Label() }

func (i Item) PubDate() time.Time {
	if i.p.DecisionDate.IsZero() {
		return time.Time{}
	}
	return domain.PublishTime(i.p.DecisionDate)
}
