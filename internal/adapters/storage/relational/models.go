package relational

import (
	"time"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

// seededKey marks that the example quotes were inserted once.
const seededKey = "quotes.seeded"

type quoteRow struct {
	ID        string `gorm:"primaryKey;column:id;type:varchar(36)"`
	Name      string `gorm:"column:name;not null"`
	Text      string `gorm:"column:text;not null"`
	Type      string `gorm:"column:type;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null;index"`
}

func (quoteRow) TableName() string { return "quotes" }

func (r quoteRow) toDomain() domain.Quote {
	return domain.Quote{
		ID:        r.ID,
		Name:      r.Name,
		Text:      r.Text,
		Type:      domain.Role(r.Type),
		Timestamp: r.Timestamp,
	}
}

func rowFromDomain(q domain.Quote) quoteRow {
	return quoteRow{
		ID:        q.ID,
		Name:      q.Name,
		Text:      q.Text,
		Type:      string(q.Type),
		Timestamp: q.Timestamp,
	}
}

type settingRow struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (settingRow) TableName() string { return "store_settings" }

// patchColumns lists the columns a patch changes.
func patchColumns(p domain.QuotePatch) map[string]any {
	cols := make(map[string]any, 4)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Text != nil {
		cols["text"] = *p.Text
	}
	if p.Type != nil {
		cols["type"] = string(*p.Type)
	}
	if p.Timestamp != nil {
		cols["timestamp"] = *p.Timestamp
	}

	return cols
}
