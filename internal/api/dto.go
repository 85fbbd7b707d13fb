package api

import (
	"github.com/shopspring/decimal"

	"dailyledger/internal/importer"
	"dailyledger/internal/model"
	"dailyledger/internal/validator"
	"dailyledger/internal/workbook"
)

type warningDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type validationErrorDTO struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type parseErrorDTO struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line,omitempty"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message"`
}

type storeErrorDTO struct {
	Kind    string `json:"kind"`
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
}

// OutcomeResponse 导入结果
type OutcomeResponse struct {
	*importer.Outcome
	Message          string               `json:"message"`
	Warnings         []warningDTO         `json:"warnings"`
	ValidationErrors []validationErrorDTO `json:"validationErrors,omitempty"`
	ParseError       *parseErrorDTO       `json:"parseError,omitempty"`
	StoreError       *storeErrorDTO       `json:"storeError,omitempty"`
}

func warningsDTO(ws []validator.Warning) []warningDTO {
	out := make([]warningDTO, 0, len(ws))
	for _, w := range ws {
		out = append(out, warningDTO{Kind: w.Kind.String(), Message: w.String()})
	}
	return out
}

func validationErrorsDTO(errs []*validator.ValidationError) []validationErrorDTO {
	out := make([]validationErrorDTO, 0, len(errs))
	for _, e := range errs {
		d := validationErrorDTO{Kind: e.Kind.String(), Message: e.Error()}
		if e.Kind == validator.KindNegativeValue {
			d.Field = e.Field.Key()
		}
		out = append(out, d)
	}
	return out
}

func newOutcomeResponse(o *importer.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Outcome:  o,
		Message:  o.Message(),
		Warnings: warningsDTO(o.Warnings),
	}
	if len(o.ValidationErrors) > 0 {
		resp.ValidationErrors = validationErrorsDTO(o.ValidationErrors)
	}
	if o.ParseError != nil {
		resp.ParseError = &parseErrorDTO{
			Kind:    o.ParseError.Kind.String(),
			Line:    o.ParseError.Line,
			Label:   o.ParseError.Label,
			Message: o.ParseError.Error(),
		}
	}
	if o.StoreError != nil {
		resp.StoreError = &storeErrorDTO{
			Kind:    o.StoreError.Kind.String(),
			Row:     int(o.StoreError.Row),
			Message: o.StoreError.Error(),
		}
	}
	return resp
}

// rowDTO 工作簿一行；未填报字段为 null
type rowDTO struct {
	Row      int                        `json:"row"`
	Date     string                     `json:"date"`
	Values   map[string]model.Amount    `json:"values"`
	Formulas map[string]string          `json:"formulas,omitempty"`
	Totals   map[string]decimal.Decimal `json:"totals,omitempty"`
}

func fieldValues(values map[model.Field]model.Amount) map[string]model.Amount {
	out := make(map[string]model.Amount, model.FieldCount)
	for _, f := range model.AllFields() {
		out[f.Key()] = values[f]
	}
	return out
}

func newRowDTO(r workbook.Row) rowDTO {
	formulas := make(map[string]string, len(r.Formulas))
	for t, f := range r.Formulas {
		formulas[t.Key()] = f
	}
	return rowDTO{Row: int(r.Index), Date: r.Date, Values: fieldValues(r.Values), Formulas: formulas}
}

func newEvaluatedRowDTO(r workbook.EvaluatedRow) rowDTO {
	totals := make(map[string]decimal.Decimal, len(r.Totals))
	for t, v := range r.Totals {
		totals[t.Key()] = v
	}
	return rowDTO{Row: int(r.Index), Date: r.Date, Values: fieldValues(r.Values), Totals: totals}
}

type previewResponse struct {
	Record           model.DailyRecord          `json:"record"`
	Declared         map[string]model.Amount    `json:"declared"`
	Totals           map[string]decimal.Decimal `json:"totals"`
	Warnings         []warningDTO               `json:"warnings"`
	ValidationErrors []validationErrorDTO       `json:"validationErrors"`
	Ignored          []string                   `json:"ignored,omitempty"`
	DuplicateRow     int                        `json:"duplicateRow,omitempty"`
	NextRow          int                        `json:"nextRow"`
	WouldWrite       bool                       `json:"wouldWrite"`
}

func newPreviewResponse(p *importer.PreviewResult) previewResponse {
	totals := make(map[string]decimal.Decimal, len(p.Totals))
	for t, v := range p.Totals {
		totals[t.Key()] = v
	}
	return previewResponse{
		Record: p.Report.Record,
		Declared: map[string]model.Amount{
			model.TotalVenue.Key(): p.Report.Declared.Venue,
			model.TotalStore.Key(): p.Report.Declared.Store,
			model.TotalGrand.Key(): p.Report.Declared.Grand,
		},
		Totals:           totals,
		Warnings:         warningsDTO(p.Warnings),
		ValidationErrors: validationErrorsDTO(p.ValidationErrors),
		Ignored:          p.Report.Ignored,
		DuplicateRow:     int(p.DuplicateRow),
		NextRow:          int(p.NextRow),
		WouldWrite:       p.WouldWrite(),
	}
}
