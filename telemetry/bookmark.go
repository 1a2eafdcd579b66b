package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBloom      BookmarkType = "bloom"
	BookmarkCrash      BookmarkType = "crash"
	BookmarkExtinction BookmarkType = "extinction"
	BookmarkStable     BookmarkType = "stable"
)

// Bookmark marks a window where the population did something notable.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Window      int          `csv:"window"`
	ElapsedSec  float64      `csv:"elapsed_sec"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"window", b.Window,
		"description", b.Description,
	)
}

// BookmarkDetector watches successive windows for notable population changes.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPeak   int
	stableStreak int
	extinct      bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check returns the bookmarks triggered by stats and adds it to the history.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if len(bd.getHistory()) > 0 {
		for _, check := range []func(WindowStats) *Bookmark{
			bd.checkExtinction,
			bd.checkBloom,
			bd.checkCrash,
			bd.checkStable,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.addToHistory(stats)
	if stats.Alive > bd.recentPeak {
		bd.recentPeak = stats.Alive
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the stored windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) last() WindowStats {
	h := bd.getHistory()
	return h[len(h)-1]
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Alive > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct || bd.last().Alive == 0 {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Window:      stats.Window,
		ElapsedSec:  stats.ElapsedSec,
		Description: fmt.Sprintf("Population died out after %d alive", bd.last().Alive),
	}
}

func (bd *BookmarkDetector) checkBloom(stats WindowStats) *Bookmark {
	prev := bd.last().Alive
	if prev == 0 || stats.Alive < 10 || stats.Alive < prev*2 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBloom,
		Window:      stats.Window,
		ElapsedSec:  stats.ElapsedSec,
		Description: fmt.Sprintf("Population grew %.1fx from %d to %d", float64(stats.Alive)/float64(prev), prev, stats.Alive),
	}
}

func (bd *BookmarkDetector) checkCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 || stats.Alive == 0 {
		return nil
	}
	drop := 1 - float64(stats.Alive)/float64(bd.recentPeak)
	if drop <= 0.30 || stats.Alive >= bd.recentPeak-10 {
		return nil
	}
	oldPeak := bd.recentPeak
	bd.recentPeak = stats.Alive
	return &Bookmark{
		Type:        BookmarkCrash,
		Window:      stats.Window,
		ElapsedSec:  stats.ElapsedSec,
		Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Alive),
	}
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Alive < 10 {
		bd.stableStreak = 0
		return nil
	}
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	counts := []float64{float64(stats.Alive)}
	for _, h := range history[len(history)-3:] {
		counts = append(counts, float64(h.Alive))
	}
	mean, std := stat.PopMeanStdDev(counts, nil)
	if mean > 0 && std/mean < 0.2 {
		bd.stableStreak++
	} else {
		bd.stableStreak = 0
	}

	// Fire once per streak.
	if bd.stableStreak != 5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStable,
		Window:      stats.Window,
		ElapsedSec:  stats.ElapsedSec,
		Description: fmt.Sprintf("Population steady around %.0f alive over 5 windows", mean),
	}
}
