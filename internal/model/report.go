package model

import "time"

// DocumentInfo identifies one side of a comparison.
type DocumentInfo struct {
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`

	// Digest is the hex SHA3-256 of all normalized page texts, in order.
	Digest string `json:"digest,omitempty"`
}

// Summary is the document-level rollup of a comparison.
type Summary struct {
	TotalDifferences int `json:"total_differences"`

	// ByKind and BySeverity count differences per kind and severity name.
	ByKind     map[string]int `json:"by_kind"`
	BySeverity map[string]int `json:"by_severity"`

	// OverallSimilarity is the mean pair similarity, counting unmatched
	// pages as 0.
	OverallSimilarity float64 `json:"overall_similarity"`

	PageCountMismatch bool `json:"page_count_mismatch"`

	MatchedPages int `json:"matched_pages"`
	AddedPages   int `json:"added_pages"`
	DeletedPages int `json:"deleted_pages"`
	FailedPages  int `json:"failed_pages"`
}

// Count returns the number of differences of kind k.
func (s Summary) Count(k Kind) int {
	return s.ByKind[k.String()]
}

// CountSeverity returns the number of differences with severity sev.
func (s Summary) CountSeverity(sev Severity) int {
	b, _ := sev.MarshalText()
	return s.BySeverity[string(b)]
}

// Segments holds the segmentation of both documents.
type Segments struct {
	Base    []DocumentSegment `json:"base"`
	Compare []DocumentSegment `json:"compare"`
}

// Report is the outcome of one comparison run.
//
// A report is only final when Complete is true. A cancelled or timed-out
// run still returns the report with whatever was assembled so far, with
// Complete false and TimedOut set.
type Report struct {
	ID       string       `json:"id"`
	Base     DocumentInfo `json:"base"`
	Compare  DocumentInfo `json:"compare"`
	Strategy string       `json:"strategy"`

	Segments     Segments `json:"segments"`
	SegmentPairs []Pair   `json:"segment_pairs"`

	// Pairs are the page pairing decisions: matched pairs in base order,
	// then base-only pages, then compare-only pages.
	Pairs []Pair `json:"pairs"`

	// Pages holds one comparison per pair, in Pairs order.
	Pages []PageComparison `json:"pages"`

	Summary Summary `json:"summary"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	Complete bool   `json:"complete"`
	TimedOut bool   `json:"timed_out"`
	Error    string `json:"error,omitempty"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`

	// Working state shared by the pipeline steps, not serialized.
	BaseDocument    *Document          `json:"-"`
	CompareDocument *Document          `json:"-"`
	BaseFP          []*PageFingerprint `json:"-"`
	CompareFP       []*PageFingerprint `json:"-"`
}

// NewReport creates an empty report for two documents.
func NewReport(id string, base, compare *Document) *Report {
	r := &Report{
		ID:              id,
		BaseDocument:    base,
		CompareDocument: compare,
		Segments:        Segments{Base: []DocumentSegment{}, Compare: []DocumentSegment{}},
		SegmentPairs:    []Pair{},
		Pairs:           []Pair{},
		Pages:           []PageComparison{},
		PerformedSteps:  []string{},
		StartedAt:       time.Now(),
	}
	if base != nil {
		r.Base = DocumentInfo{Name: base.Name, PageCount: base.PageCount()}
	}
	if compare != nil {
		r.Compare = DocumentInfo{Name: compare.Name, PageCount: compare.PageCount()}
	}
	return r
}

// Rollup recomputes the summary from Pairs and Pages.
func (r *Report) Rollup() {
	s := Summary{
		ByKind:            make(map[string]int, len(Kinds)),
		BySeverity:        make(map[string]int, len(Severities)),
		PageCountMismatch: r.Base.PageCount != r.Compare.PageCount,
	}

	var total float64
	for _, p := range r.Pairs {
		switch {
		case p.Matched:
			s.MatchedPages++
			total += p.Similarity
		case p.BaseOnly():
			s.DeletedPages++
		case p.CompareOnly():
			s.AddedPages++
		}
	}
	if len(r.Pairs) > 0 {
		s.OverallSimilarity = Clamp01(total / float64(len(r.Pairs)))
	} else if r.Base.PageCount == 0 && r.Compare.PageCount == 0 {
		s.OverallSimilarity = 1
	}

	for i := range r.Pages {
		pc := &r.Pages[i]
		if pc.Failed {
			s.FailedPages++
		}
		for _, d := range pc.Differences() {
			s.TotalDifferences++
			s.ByKind[d.Kind().String()]++
			sev, _ := d.Head().Severity.MarshalText()
			s.BySeverity[string(sev)]++
		}
	}
	r.Summary = s
}

// Finish stamps the end time and marks the report complete.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	r.Complete = !r.TimedOut && r.Error == ""
}
