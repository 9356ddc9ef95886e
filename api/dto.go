/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All monetary and hour fields cross the wire as decimal strings, never
  JSON numbers, so clients see the exact cents the engine computed.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/guide.go: GuideJSON, the guide config schema
*/
package api

import (
	"time"

	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/period"
	"github.com/warp/pay-engine/tax"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// BreakDTO is an unpaid span within a shift.
type BreakDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateShiftRequest creates or reschedules a shift.
type CreateShiftRequest struct {
	ID      string     `json:"id,omitempty"`
	GuideID string     `json:"guide_id"`
	Start   string     `json:"start"`
	End     string     `json:"end"`
	Breaks  []BreakDTO `json:"breaks,omitempty"`
}

// ShiftDTO is a shift with its derived aggregates.
type ShiftDTO struct {
	ID          string     `json:"id"`
	GuideID     string     `json:"guide_id"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	Breaks      []BreakDTO `json:"breaks,omitempty"`
	BasePay     string     `json:"base_pay"`
	PenaltyPay  string     `json:"penalty_pay"`
	OvertimePay string     `json:"overtime_pay"`
	TotalPay    string     `json:"total_pay"`
	TotalHours  string     `json:"total_hours"`
}

// SegmentDTO is one priced slice of a shift.
type SegmentDTO struct {
	Kind       string `json:"kind"`
	FrameID    string `json:"frame_id,omitempty"`
	Label      string `json:"label"`
	Multiplier string `json:"multiplier"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Seconds    int64  `json:"seconds"`
	Hours      string `json:"hours"`
	Pay        string `json:"pay"`
}

// BreakdownLineDTO aggregates segments sharing a label and multiplier.
type BreakdownLineDTO struct {
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	Multiplier string `json:"multiplier"`
	Hours      string `json:"hours"`
	Pay        string `json:"pay"`
}

// BreakdownDTO is the per-component view of a calculation.
type BreakdownDTO struct {
	Lines      []BreakdownLineDTO `json:"lines"`
	TotalHours string             `json:"total_hours"`
	TotalPay   string             `json:"total_pay"`
}

// CalculationDTO is the full output of a shift recalculation or preview.
type CalculationDTO struct {
	Segments  []SegmentDTO `json:"segments"`
	Totals    TotalsDTO    `json:"totals"`
	Breakdown BreakdownDTO `json:"breakdown"`
}

// TotalsDTO is a shift's aggregate pay figures.
type TotalsDTO struct {
	BasePay     string `json:"base_pay"`
	PenaltyPay  string `json:"penalty_pay"`
	OvertimePay string `json:"overtime_pay"`
	TotalPay    string `json:"total_pay"`
	TotalHours  string `json:"total_hours"`
}

// =============================================================================
// PERIODS
// =============================================================================

// CreatePeriodRequest creates a pay period.
type CreatePeriodRequest struct {
	ID      string `json:"id,omitempty"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Type    string `json:"type"` // weekly, fortnightly, monthly
	TaxYear string `json:"tax_year"`
}

// AddExtraRequest attaches a one-off amount to a period.
type AddExtraRequest struct {
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Taxable bool   `json:"taxable"`
}

// ExtraDTO is a stored period extra.
type ExtraDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Taxable bool   `json:"taxable"`
}

// PeriodTotalsDTO is a period's derived withholding breakdown.
type PeriodTotalsDTO struct {
	Gross     string `json:"gross"`
	IncomeTax string `json:"income_tax"`
	Medicare  string `json:"medicare"`
	StudyLoan string `json:"study_loan"`
	Withheld  string `json:"withheld"`
	Net       string `json:"net"`
	TaxSource string `json:"tax_source,omitempty"`
}

// PeriodDTO is a pay period in API responses.
type PeriodDTO struct {
	ID      string          `json:"id"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Type    string          `json:"type"`
	Status  string          `json:"status"`
	TaxYear string          `json:"tax_year"`
	Extras  []ExtraDTO      `json:"extras,omitempty"`
	Totals  PeriodTotalsDTO `json:"totals"`
}

// =============================================================================
// TAX TABLES
// =============================================================================

// CoefficientDTO is one withholding bracket row.
type CoefficientDTO struct {
	Scale string `json:"scale"`
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	A     string `json:"a"`
	B     string `json:"b"`
}

// StslRateDTO is one study-loan repayment bracket.
type StslRateDTO struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
	Rate string `json:"rate"`
}

// TaxTablesDTO is a tax year's full table set.
type TaxTablesDTO struct {
	Year                  string           `json:"year"`
	Source                string           `json:"source"`
	Coefficients          []CoefficientDTO `json:"coefficients"`
	Stsl                  []StslRateDTO    `json:"stsl"`
	MedicareRate          string           `json:"medicare_rate"`
	MedicareLowThreshold  string           `json:"medicare_low_threshold"`
	MedicareHighThreshold string           `json:"medicare_high_threshold"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toBreakDTOs(breaks []engine.BreakPeriod) []BreakDTO {
	dtos := make([]BreakDTO, 0, len(breaks))
	for _, b := range breaks {
		dtos = append(dtos, BreakDTO{
			Start: b.Start.Format(time.RFC3339),
			End:   b.End.Format(time.RFC3339),
		})
	}
	return dtos
}

func toShiftDTO(s *engine.Shift) ShiftDTO {
	return ShiftDTO{
		ID:          string(s.ID),
		GuideID:     string(s.GuideID),
		Start:       s.Start.Format(time.RFC3339),
		End:         s.End.Format(time.RFC3339),
		Breaks:      toBreakDTOs(s.Breaks),
		BasePay:     s.BasePay.String(),
		PenaltyPay:  s.PenaltyPay.String(),
		OvertimePay: s.OvertimePay.String(),
		TotalPay:    s.TotalPay.String(),
		TotalHours:  s.TotalHours.String(),
	}
}

func toSegmentDTOs(segments []engine.Segment) []SegmentDTO {
	dtos := make([]SegmentDTO, 0, len(segments))
	for _, seg := range segments {
		dtos = append(dtos, SegmentDTO{
			Kind:       string(seg.Kind),
			FrameID:    seg.FrameID,
			Label:      seg.Label,
			Multiplier: seg.Multiplier.String(),
			Start:      seg.Start.Format(time.RFC3339),
			End:        seg.End.Format(time.RFC3339),
			Seconds:    seg.Seconds,
			Hours:      seg.Hours.String(),
			Pay:        seg.Pay.String(),
		})
	}
	return dtos
}

func toBreakdownDTO(b engine.Breakdown) BreakdownDTO {
	lines := make([]BreakdownLineDTO, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, BreakdownLineDTO{
			Kind:       string(l.Kind),
			Label:      l.Label,
			Multiplier: l.Multiplier.String(),
			Hours:      l.Hours.String(),
			Pay:        l.Pay.String(),
		})
	}
	return BreakdownDTO{
		Lines:      lines,
		TotalHours: b.TotalHours.String(),
		TotalPay:   b.TotalPay.String(),
	}
}

func toCalculationDTO(res *engine.Result) CalculationDTO {
	return CalculationDTO{
		Segments: toSegmentDTOs(res.Segments),
		Totals: TotalsDTO{
			BasePay:     res.Totals.BasePay.String(),
			PenaltyPay:  res.Totals.PenaltyPay.String(),
			OvertimePay: res.Totals.OvertimePay.String(),
			TotalPay:    res.Totals.TotalPay.String(),
			TotalHours:  res.Totals.TotalHours.String(),
		},
		Breakdown: toBreakdownDTO(res.Breakdown),
	}
}

func toPeriodDTO(p *period.PayPeriod) PeriodDTO {
	extras := make([]ExtraDTO, 0, len(p.Extras))
	for _, e := range p.Extras {
		extras = append(extras, ExtraDTO{
			ID:      e.ID,
			Name:    e.Name,
			Amount:  e.Amount.String(),
			Taxable: e.Taxable,
		})
	}
	return PeriodDTO{
		ID:      string(p.ID),
		Start:   p.Start.Format(time.RFC3339),
		End:     p.End.Format(time.RFC3339),
		Type:    string(p.Type),
		Status:  string(p.Status),
		TaxYear: string(p.TaxYear),
		Extras:  extras,
		Totals:  toPeriodTotalsDTO(p.Totals),
	}
}

func toPeriodTotalsDTO(t period.Totals) PeriodTotalsDTO {
	return PeriodTotalsDTO{
		Gross:     t.Gross.String(),
		IncomeTax: t.IncomeTax.String(),
		Medicare:  t.Medicare.String(),
		StudyLoan: t.StudyLoan.String(),
		Withheld:  t.Withheld.String(),
		Net:       t.Net.String(),
		TaxSource: string(t.Source),
	}
}

func toTaxTablesDTO(ts *tax.TableSet) TaxTablesDTO {
	dto := TaxTablesDTO{
		Year:                  string(ts.Year),
		Source:                string(ts.Source),
		MedicareRate:          ts.Config.MedicareRate.String(),
		MedicareLowThreshold:  ts.Config.MedicareLowThreshold.String(),
		MedicareHighThreshold: ts.Config.MedicareHighThreshold.String(),
	}
	for _, c := range ts.Coefficients {
		row := CoefficientDTO{
			Scale: string(c.Scale),
			From:  c.From.String(),
			A:     c.A.String(),
			B:     c.B.String(),
		}
		if !c.To.IsZero() {
			row.To = c.To.String()
		}
		dto.Coefficients = append(dto.Coefficients, row)
	}
	for _, r := range ts.Stsl {
		row := StslRateDTO{From: r.From.String(), Rate: r.Rate.String()}
		if !r.To.IsZero() {
			row.To = r.To.String()
		}
		dto.Stsl = append(dto.Stsl, row)
	}
	return dto
}
