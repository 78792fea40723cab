package cppdex

import (
	"fmt"
	"strings"
	"time"
)

// Stats summarizes one completed run. The Matched counters include every
// observed declaration of the kind, filtered or not; the Indexed counters
// are the entries that survived filtering and deduplication.
type Stats struct {
	Units   int
	Failed  int
	Elapsed time.Duration

	FunctionsIndexed  int
	RecordsIndexed    int
	EnumsIndexed      int
	NamespacesIndexed int
	AliasesIndexed    int

	FunctionsMatched  int64
	RecordsMatched    int64
	EnumsMatched      int64
	NamespacesMatched int64
	AliasesMatched    int64
}

func (e *Engine) stats(units, failed int, elapsed time.Duration) *Stats {
	return &Stats{
		Units:   units,
		Failed:  failed,
		Elapsed: elapsed,

		FunctionsIndexed:  e.idx.Functions.Len(),
		RecordsIndexed:    e.idx.Records.Len(),
		EnumsIndexed:      e.idx.Enums.Len(),
		NamespacesIndexed: e.idx.Namespaces.Len(),
		AliasesIndexed:    e.idx.Aliases.Len(),

		FunctionsMatched:  e.idx.Functions.Matches(),
		RecordsMatched:    e.idx.Records.Matches(),
		EnumsMatched:      e.idx.Enums.Matches(),
		NamespacesMatched: e.idx.Namespaces.Matches(),
		AliasesMatched:    e.idx.Aliases.Matches(),
	}
}

// String renders the per-kind indexed/matched table printed at the end of
// a CLI run.
func (s *Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "indexed %d translation units in %s", s.Units, s.Elapsed.Round(time.Millisecond))
	if s.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.Failed)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  functions:  %d indexed / %d matched\n", s.FunctionsIndexed, s.FunctionsMatched)
	fmt.Fprintf(&b, "  records:    %d indexed / %d matched\n", s.RecordsIndexed, s.RecordsMatched)
	fmt.Fprintf(&b, "  enums:      %d indexed / %d matched\n", s.EnumsIndexed, s.EnumsMatched)
	fmt.Fprintf(&b, "  namespaces: %d indexed / %d matched\n", s.NamespacesIndexed, s.NamespacesMatched)
	fmt.Fprintf(&b, "  aliases:    %d indexed / %d matched", s.AliasesIndexed, s.AliasesMatched)
	return b.String()
}
