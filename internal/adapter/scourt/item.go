package scourt

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"caserss/internal/domain"
)

// Item отображает прецедент библиотеки Верховного суда на элемент ленты.
type Item struct {
	p domain.Precedent
}

func NewItem(p domain.Precedent) Item { return Item{p: p} }

func (i Item) Title() string {
	return fmt.Sprintf("%s (%s)", i.p.Title, i.p.Citation())
}

// Link ведет на карточку решения; kindCode=2 для Верховного суда, 1 для прочих.
func (i Item) Link() string {
	kindCode := 1
	if i.p.Court.IsSupreme() {
		kindCode = 2
	}
	return fmt.Sprintf("%s/search/judg/judgDetail?seqNo=%d&kindCode=%d", DefaultBaseURL, i.p.ID(), kindCode)
}

func (i Item) Description() string {
	return fmt.Sprintf("<h2>판시사항</h2><p>%s</p><h2>판결요지</h2><p>%s</p>",
		html.EscapeString(i.p.Abstract),
		html.EscapeString(i.p.Summary),
	)
}

func (i Item) GUID() string { return strconv.FormatInt(i.p.ID(), 10) }

func (i Item) Author() string {
	return fmt.Sprintf("%s (%s)", i.p.Court, strings.Join(i.p.JudgeNames(), ", "))
}

func (i Item) Category() string { return i.p.Category.Label() }

// PubDate - дата выпуска бюллетеня, 14:00 по Сеулу.
// Без детального документа дата неизвестна.
func (i Item) PubDate() time.Time {
	if i.p.PublicationDate.IsZero() {
		return time.Time{}
	}
	return domain.PublishTime(i.p.PublicationDate)
}
