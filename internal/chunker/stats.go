package chunker

import (
	"math"
	"sort"
	"unicode/utf8"
)

// Version identifies the chunking behavior. Bump it when splitting output changes.
const Version = "header-v1"

// Stats summarizes a chunk list.
type Stats struct {
	Chunks          int         `json:"chunks"`
	HeaderChunks    int         `json:"header_chunks"`
	PartialChunks   int         `json:"partial_chunks"`
	ParagraphGroups int         `json:"paragraph_groups"`
	Length          LengthStats `json:"length"`
}

// LengthStats holds chunk length statistics in characters.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeStats counts chunk variants and length distribution.
func ComputeStats(chunks []Chunk) Stats {
	stats := Stats{Chunks: len(chunks)}
	lengths := make([]int, 0, len(chunks))

	for _, chunk := range chunks {
		switch {
		case chunk.ChunkType == ChunkTypeParagraphGroup:
			stats.ParagraphGroups++
		case chunk.HasHeader():
			stats.HeaderChunks++
			if chunk.IsPartial {
				stats.PartialChunks++
			}
		}
		lengths = append(lengths, utf8.RuneCountInString(chunk.Text))
	}

	stats.Length = computeLengthStats(lengths)
	return stats
}

// computeLengthStats computes min, max, mean, and p95 from lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, l := range sorted {
		sum += l
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
