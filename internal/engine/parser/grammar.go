package parser

import (
	"regexp"
	"strings"

	"signal-engine/internal/entity"
)

// The grammar is a fixed set of textual productions over the bulletin
// body. Each production is a named, typed matcher returning structured
// captures; capture groups are referenced by name, never by position.

const (
	// Lookahead windows, in bytes, after a production match.
	noteTheChangeWindow   = 30
	triggerWindow         = 200
	targetConditionWindow = 100

	rawTextLimit = 500
)

var (
	reActive = regexp.MustCompile(
		`(?i)continues?\s+(?:on\s+a\s+|the\s+)?(?P<word>buy|sell|move)\s+(?:signal\s+)?` +
			`from\s+(?P<origin>[\d,\.]+)\s+as\s+long\s+as\s+there\s+is\s+no\s+` +
			`(?:good\s+)?(?:(?P<hourly>hourly)\s+)?close\s+(?P<dir>above|below)\s+` +
			`(?:the\s+trend\s+line,?\s*(?:around\s+)?)?(?P<cancel>[\d,\.]+)` +
			`(?P<ntc>\s*\(note\s+the\s+change\))?`)

	reCancelled = regexp.MustCompile(
		`(?i)cancelled\s+the\s+(?P<word>buy|sell|move)\s+(?:signal\s+)?` +
			`from\s+(?P<origin>[\d,\.]+)\s+(?:again\s+)?with\s+the\s+(?:theo?\s+)?` +
			`(?:(?P<hourly>hourly)\s+)?close\s+(?P<dir>above|below)\s+(?P<cancel>[\d,\.]+)`)

	reTrigger = regexp.MustCompile(
		`(?i)a\s+close\s+(?:now\s+)?(?P<dir>above|below)\s+(?P<level>[\d,\.]+)\s+` +
			`will\s+(?:give|resume)\s+(?:a\s+)?(?:new\s+)?(?P<word>buy|sell)`)

	reTarget = regexp.MustCompile(
		`(?i)there\s+is\s+(?:still\s+)?(?:a\s+|an\s+)?(?:new\s+)?` +
			`(?P<dir>upside|downside)\s+price\s+target\s+(?:at|of)\s+(?P<price>[\d,\.]+)`)

	reCycle = regexp.MustCompile(
		`(?i)the\s+(?P<timeframe>daily|weekly|monthly|dominant|hourly|dominant\s+daily|` +
			`dominant\s+weekly|longer\s+term)\s+cycle[s]?\s+` +
			`(?:is\s+|continues?\s+|projects?\s+(?:a\s+)?|has\s+|turned?\s+|support\s+)` +
			`(?P<dir>up|down|(?:a\s+)?(?:top|bottom|low|high|bottomed|topped|an\s+up\s+move))` +
			`(?:\s+(?:until|into|for|again|next|by|this|another)\s+(?P<until>[^\.]+))?`)

	reNoteTheChange = regexp.MustCompile(`(?i)\(note\s+the\s+change\)`)

	reTargetCondition = regexp.MustCompile(
		`(?i)as\s+long\s+as\s+it\s+stays\s+on\s+a\s+(?P<word>buy|sell)\s+signal`)
)

// match wraps one regexp match with named-group access.
type match struct {
	re     *regexp.Regexp
	groups []string
	start  int
	end    int
}

func findAll(re *regexp.Regexp, body string) []match {
	var out []match
	idx := re.FindAllStringSubmatchIndex(body, -1)
	for _, loc := range idx {
		m := match{re: re, start: loc[0], end: loc[1]}
		m.groups = make([]string, re.NumSubexp()+1)
		for g := 0; g <= re.NumSubexp(); g++ {
			if loc[2*g] >= 0 {
				m.groups[g] = body[loc[2*g]:loc[2*g+1]]
			}
		}
		out = append(out, m)
	}
	return out
}

func (m match) group(name string) string {
	i := m.re.SubexpIndex(name)
	if i < 0 {
		return ""
	}
	return m.groups[i]
}

func (m match) has(name string) bool {
	return m.group(name) != ""
}

func (m match) raw(body string) string {
	text := strings.TrimSpace(body[m.start:m.end])
	if len(text) > rawTextLimit {
		text = text[:rawTextLimit]
	}
	return text
}

// ActiveSignalMatch is one capture of the ACTIVE production.
type ActiveSignalMatch struct {
	SignalType      entity.SignalType
	OriginPrice     *float64
	UsesHourlyClose bool
	CancelDirection entity.Direction
	CancelLevel     *float64
	NoteTheChange   bool
	Start           int
	RawText         string
}

// CancelledSignalMatch is one capture of the CANCELLED production,
// including any trigger sub-production found in the lookahead window.
type CancelledSignalMatch struct {
	SignalType       entity.SignalType
	OriginPrice      *float64
	UsesHourlyClose  bool
	CancelDirection  entity.Direction
	CancelLevel      *float64
	TriggerDirection *entity.Direction
	TriggerLevel     *float64
	Start            int
	RawText          string
}

// PriceTargetMatch is one capture of the PRICE_TARGET production.
type PriceTargetMatch struct {
	Direction   entity.TargetDirection
	TargetPrice *float64
	Condition   string
	Start       int
	RawText     string
}

// CycleMatch is one capture of the CYCLE production.
type CycleMatch struct {
	Timeframe        string
	Direction        entity.CycleDirection
	UntilDescription string
	Start            int
	RawText          string
}

// FindActiveSignals applies the ACTIVE production over the body. A
// "(note the change)" marker inside the match or within the short window
// after it sets NoteTheChange.
func FindActiveSignals(body string) []ActiveSignalMatch {
	var out []ActiveSignalMatch
	for _, m := range findAll(reActive, body) {
		ntc := m.has("ntc")
		if !ntc {
			after := lookahead(body, m.end, noteTheChangeWindow)
			ntc = reNoteTheChange.MatchString(after)
		}
		out = append(out, ActiveSignalMatch{
			SignalType:      normalizeSignalWord(m.group("word")),
			OriginPrice:     ParsePrice(m.group("origin")),
			UsesHourlyClose: m.has("hourly"),
			CancelDirection: entity.Direction(strings.ToUpper(m.group("dir"))),
			CancelLevel:     ParsePrice(m.group("cancel")),
			NoteTheChange:   ntc,
			Start:           m.start,
			RawText:         m.raw(body),
		})
	}
	return out
}

// FindCancelledSignals applies the CANCELLED production over the body,
// searching the window after each match for the trigger sub-production.
func FindCancelledSignals(body string) []CancelledSignalMatch {
	var out []CancelledSignalMatch
	for _, m := range findAll(reCancelled, body) {
		c := CancelledSignalMatch{
			SignalType:      normalizeSignalWord(m.group("word")),
			OriginPrice:     ParsePrice(m.group("origin")),
			UsesHourlyClose: m.has("hourly"),
			CancelDirection: entity.Direction(strings.ToUpper(m.group("dir"))),
			CancelLevel:     ParsePrice(m.group("cancel")),
			Start:           m.start,
			RawText:         m.raw(body),
		}
		after := lookahead(body, m.end, triggerWindow)
		if tm := reTrigger.FindStringSubmatchIndex(after); tm != nil {
			dir := entity.Direction(strings.ToUpper(groupByName(reTrigger, after, tm, "dir")))
			c.TriggerDirection = &dir
			c.TriggerLevel = ParsePrice(groupByName(reTrigger, after, tm, "level"))
		}
		out = append(out, c)
	}
	return out
}

// FindPriceTargets applies the PRICE_TARGET production over the body,
// capturing an optional condition clause from the lookahead window.
func FindPriceTargets(body string) []PriceTargetMatch {
	var out []PriceTargetMatch
	for _, m := range findAll(reTarget, body) {
		condition := ""
		after := lookahead(body, m.end, targetConditionWindow)
		if cm := reTargetCondition.FindStringSubmatchIndex(after); cm != nil {
			word := strings.ToLower(groupByName(reTargetCondition, after, cm, "word"))
			condition = "stays on " + word + " signal"
		}
		out = append(out, PriceTargetMatch{
			Direction:   entity.TargetDirection(strings.ToUpper(m.group("dir"))),
			TargetPrice: ParsePrice(m.group("price")),
			Condition:   condition,
			Start:       m.start,
			RawText:     m.raw(body),
		})
	}
	return out
}

// FindCycles applies the CYCLE production over the body.
func FindCycles(body string) []CycleMatch {
	var out []CycleMatch
	for _, m := range findAll(reCycle, body) {
		until := strings.TrimSpace(m.group("until"))
		if len(until) > 200 {
			until = until[:200]
		}
		out = append(out, CycleMatch{
			Timeframe:        strings.ToLower(strings.TrimSpace(m.group("timeframe"))),
			Direction:        normalizeCycleDirection(m.group("dir")),
			UntilDescription: until,
			Start:            m.start,
			RawText:          m.raw(body),
		})
	}
	return out
}

// HasNoteTheChange reports whether the standalone marker appears anywhere
// in the body.
func HasNoteTheChange(body string) bool {
	return reNoteTheChange.MatchString(body)
}

func lookahead(body string, from, window int) string {
	end := from + window
	if end > len(body) {
		end = len(body)
	}
	if from > len(body) {
		from = len(body)
	}
	return body[from:end]
}

func groupByName(re *regexp.Regexp, s string, loc []int, name string) string {
	g := re.SubexpIndex(name)
	if g < 0 || loc[2*g] < 0 {
		return ""
	}
	return s[loc[2*g]:loc[2*g+1]]
}

// normalizeSignalWord maps the matched direction word to a signal type.
// "move" signals are recorded as DIRECTIONAL.
func normalizeSignalWord(word string) entity.SignalType {
	switch strings.ToUpper(word) {
	case "MOVE":
		return entity.SignalDirectional
	default:
		return entity.SignalType(strings.ToUpper(word))
	}
}

// normalizeCycleDirection folds the many phrasings of a cycle turn into
// UP/DOWN; anything unrecognized passes through uppercased.
func normalizeCycleDirection(raw string) entity.CycleDirection {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, w := range []string{"up", "bottom", "bottomed", "up move"} {
		if strings.Contains(lower, w) {
			return entity.CycleUp
		}
	}
	for _, w := range []string{"down", "top", "topped"} {
		if strings.Contains(lower, w) {
			return entity.CycleDown
		}
	}
	return entity.CycleDirection(strings.ToUpper(lower))
}
