package chunking

import (
	"strings"

	"github.com/jmattila/document-intelligence/internal/core/domain"
)

// sectionMarker is the banner prefix emitted by the tabular and paged
// extractors ("=== SHEET: ... ===", "=== PAGE 1/3 ==="). Cutting right before
// a banner keeps one section per chunk where possible.
const sectionMarker = "\n==="

// sentenceScanWindow bounds the backward scan for a sentence terminator.
const sentenceScanWindow = 200

type Segmenter struct {
	targetSize int
	overlap    int
}

func NewSegmenter(targetSize, overlap int) *Segmenter {
	if targetSize <= 0 {
		targetSize = 1000
	}
	if overlap <= 0 || overlap >= targetSize {
		overlap = targetSize / 5
	}
	return &Segmenter{
		targetSize: targetSize,
		overlap:    overlap,
	}
}

// Split segments text into overlapping chunks of roughly the configured
// target size. Banner-structured formats get a larger window so that sheet
// and page sections survive in one piece more often.
func (s *Segmenter) Split(text string, fileType domain.FileType) []string {
	target := s.targetSize
	switch fileType {
	case domain.FileTypeTabular, domain.FileTypePaged:
		target = target * 3 / 2
	}
	return s.segment(text, target)
}

func (s *Segmenter) segment(text string, target int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + target

		if end >= len(runes) {
			// Final window runs to the end, no boundary search.
			if chunk := strings.TrimSpace(string(runes[start:])); chunk != "" {
				out = append(out, chunk)
			}
			break
		}

		end = s.snapEnd(runes, start, end, target)

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// snapEnd moves the default cut point to a structural boundary: first choice
// is just before the next section banner when that keeps the chunk within
// 1.5x the target, second choice is just after the nearest sentence
// terminator within the last sentenceScanWindow characters of the window.
func (s *Segmenter) snapEnd(runes []rune, start, end, target int) int {
	limit := start + target*3/2
	if limit > len(runes) {
		limit = len(runes)
	}
	if idx := indexOfMarker(runes[start:limit]); idx > s.overlap {
		return start + idx
	}

	floor := start + target - sentenceScanWindow
	if floor < start {
		floor = start
	}
	for i := end; i > floor; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return end
}

func indexOfMarker(window []rune) int {
	marker := []rune(sectionMarker)
	if len(window) < len(marker) {
		return -1
	}
	for i := 0; i+len(marker) <= len(window); i++ {
		match := true
		for j := range marker {
			if window[i+j] != marker[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
