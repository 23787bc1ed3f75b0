package recordsync

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/factsync/internal/model"
)

// Job names a field preset.
type Job string

const (
	JobPrice        Job = "price"
	JobFundamentals Job = "fundamentals"
	JobProfile      Job = "profile"
	JobAll          Job = "all"
	// JobVerify resolves the company name and runs identity verification.
	JobVerify Job = "verify"
)

var presets = map[Job][]model.Field{
	JobPrice:        {model.FieldPrice, model.FieldHigh52, model.FieldLow52},
	JobFundamentals: {model.FieldEPS, model.FieldBPS},
	JobProfile:      {model.FieldName, model.FieldSector, model.FieldIndustry, model.FieldSummary},
	JobAll:          model.AllFields,
	JobVerify:       {model.FieldName},
}

// Jobs lists the known jobs in display order.
var Jobs = []Job{JobPrice, JobFundamentals, JobProfile, JobAll, JobVerify}

// ParseJob validates a job name.
func ParseJob(s string) (Job, error) {
	j := Job(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[j]; !ok {
		return "", eris.Errorf("recordsync: unknown job %q", s)
	}
	return j, nil
}

// Fields returns a copy of the job's preset fields.
func (j Job) Fields() []model.Field {
	return append([]model.Field(nil), presets[j]...)
}

// Verifies reports whether the job runs identity verification.
func (j Job) Verifies() bool {
	return j == JobVerify
}

// fieldsFor resolves the effective field list: an override replaces the
// preset, and a verify job always requests the name.
func fieldsFor(j Job, override []model.Field) []model.Field {
	fields := j.Fields()
	if len(override) > 0 {
		fields = append([]model.Field(nil), override...)
	}
	if j.Verifies() {
		for _, f := range fields {
			if f == model.FieldName {
				return fields
			}
		}
		fields = append(fields, model.FieldName)
	}
	return fields
}
