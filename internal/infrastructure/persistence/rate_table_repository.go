package persistence

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRateTable implements landedcost.RateTable using GORM.
// Lookups fall back from the exact code to its 6-digit subheading and then
// its 4-digit heading.
type GormRateTable struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRateTable creates a new GormRateTable
func NewGormRateTable(db *gorm.DB) *GormRateTable {
	return &GormRateTable{db: db, now: time.Now}
}

// Lookup returns the duty and tax rates of a lane
func (r *GormRateTable) Lookup(ctx context.Context, classificationCode, exportCountry, importCountry string) (landedcost.DutyRates, error) {
	exportCountry = strings.ToUpper(strings.TrimSpace(exportCountry))
	importCountry = strings.ToUpper(strings.TrimSpace(importCountry))

	for _, code := range ClassificationFallbacks(classificationCode) {
		var model models.DutyRateModel
		err := r.db.WithContext(ctx).
			Where("classification_code = ? AND export_country = ? AND import_country = ?", code, exportCountry, importCountry).
			First(&model).Error
		if err == nil {
			return model.ToDomain(), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return landedcost.DutyRates{}, err
		}
	}
	return landedcost.DutyRates{}, landedcost.ErrRateNotFound
}

// UpsertRate inserts or replaces one rate row
func (r *GormRateTable) UpsertRate(ctx context.Context, classificationCode, exportCountry, importCountry string, rates landedcost.DutyRates) error {
	model := models.DutyRateModel{
		ClassificationCode: NormalizeClassificationCode(classificationCode),
		ExportCountry:      strings.ToUpper(exportCountry),
		ImportCountry:      strings.ToUpper(importCountry),
		DutyRate:           rates.DutyRate,
		TaxRate:            rates.TaxRate,
		UpdatedAt:          r.now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "classification_code"},
				{Name: "export_country"},
				{Name: "import_country"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"duty_rate", "tax_rate", "updated_at"}),
		}).
		Create(&model).Error
}

// NormalizeClassificationCode strips everything but digits, so "6109.10.00" and
// "61091000" address the same row
func NormalizeClassificationCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClassificationFallbacks returns the codes tried for a lookup, most specific first
func ClassificationFallbacks(code string) []string {
	normalized := NormalizeClassificationCode(code)
	if normalized == "" {
		return nil
	}
	codes := []string{normalized}
	for _, n := range []int{6, 4} {
		if len(normalized) > n {
			codes = append(codes, normalized[:n])
		}
	}
	return codes
}
