// Package chat runs the conversational booking assistant: it pulls
// booking details out of free text, remembers them per session and asks
// for whatever is still missing.
package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fields are the booking details found in one message.  Zero values mean
// "not mentioned".
type Fields struct {
	PartySize    int    `json:"party_size,omitempty"`
	Date         string `json:"date,omitempty"` // YYYY-MM-DD
	Time         string `json:"time,omitempty"` // HH:MM
	Section      string `json:"section,omitempty"`
	NoPreference bool   `json:"no_preference,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// Empty reports whether nothing was found.
func (f Fields) Empty() bool { return f == Fields{} }

var (
	reEmail     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reReference = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	reISODate   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reDayMonth  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	reMonthDay  = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	reWeekday   = regexp.MustCompile(`\b(?:next\s+|on\s+|this\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	reClock     = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\s*(am|pm)?\b`)
	reMeridiem  = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	reOClock    = regexp.MustCompile(`\b(\d{1,2})\s*o'?clock\b`)
	rePeople    = regexp.MustCompile(`\b(\d{1,2})\s*(?:people|persons|person|guests|guest|pax|ppl|members|adults|seats|of us)\b`)
	reParty     = regexp.MustCompile(`\b(?:party|group|table)\s+(?:of|for)\s+(\d{1,2})\b`)
	rePartyN    = regexp.MustCompile(`\bparty\s*(\d{1,2})\b`)
	reFor       = regexp.MustCompile(`\bfor\s+(\d{1,2})\b`)
	rePhone     = regexp.MustCompile(`\+?\d[\d\s-]{6,18}\d`)
	reName      = regexp.MustCompile(`(?i)\b(?:my name is|name is|name's|i am|i'm|im|this is)\s+([a-z][a-z.'-]*(?:\s+[a-z][a-z.'-]*){0,3})`)
	reWords     = regexp.MustCompile(`^[A-Za-z][A-Za-z.'-]+(?:\s+[A-Za-z][A-Za-z.'-]+){0,3}$`)
)

// sectionSynonyms maps words guests use onto text that matches a section
// name.  Retired areas are kept so the guest hears they are closed rather
// than being silently seated elsewhere.
var sectionSynonyms = []struct {
	query string
	words []string
}{
	{"lake", []string{"lake", "lakeside", "lakeview", "waterfront", "water"}},
	{"garden", []string{"garden", "gardenview", "outdoor", "outdoors", "outside", "terrace"}},
	{"indoor", []string{"indoor", "indoors", "inside", "normal", "regular", "standard"}},
	{"private", []string{"private", "gazebo"}},
	{"rooftop", []string{"rooftop", "roof"}},
	{"patio", []string{"patio"}},
}

var noPreference = []string{"any section", "anywhere", "no preference", "doesn't matter", "dont care", "don't care", "any table"}

// words that follow "i am" without being a name
var notNames = map[string]bool{
	"looking": true, "trying": true, "interested": true, "here": true, "booking": true, "planning": true,
	"going": true, "hungry": true, "a": true, "an": true, "the": true, "not": true, "just": true, "coming": true,
	"bringing": true, "hoping": true, "wondering": true, "checking": true, "available": true, "free": true, "sorry": true,
}

// words that end a name
var nameStops = map[string]bool{
	"and": true, "for": true, "with": true, "at": true, "on": true, "table": true, "party": true,
	"booking": true, "here": true, "from": true, "my": true, "email": true, "phone": true, "tomorrow": true,
	"today": true, "tonight": true, "please": true, "want": true, "would": true, "like": true, "need": true,
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// Extract pulls booking details out of text.  now anchors relative dates
// and must be in the restaurant time zone.
func Extract(text string, now time.Time) Fields {
	var f Fields
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)

	if m := reEmail.FindString(raw); m != "" {
		f.Email = strings.ToLower(m)
	}
	if m := reReference.FindString(raw); m != "" {
		f.Reference = strings.ToLower(m)
	}
	f.Date = extractDate(lower, now)
	f.Time = extractTime(lower)
	f.PartySize = extractParty(lower)
	f.Section, f.NoPreference = extractSection(lower)
	f.Phone = extractPhone(raw)
	f.Name = extractName(raw)
	return f
}

func extractDate(lower string, now time.Time) string {
	if m := reISODate.FindStringSubmatch(lower); m != nil {
		if _, err := time.Parse("2006-01-02", m[0]); err == nil {
			return m[0]
		}
	}
	switch {
	case containsWord(lower, "today"), containsWord(lower, "tonight"):
		return now.Format("2006-01-02")
	case containsWord(lower, "tomorrow"), containsWord(lower, "tmrw"), containsWord(lower, "tmr"):
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	if m := reDayMonth.FindStringSubmatch(lower); m != nil {
		if d, ok := calendarDate(now, months[m[2]], m[1]); ok {
			return d
		}
	}
	if m := reMonthDay.FindStringSubmatch(lower); m != nil {
		if d, ok := calendarDate(now, months[m[1]], m[2]); ok {
			return d
		}
	}
	if m := reWeekday.FindStringSubmatch(lower); m != nil {
		ahead := (int(weekdays[m[1]]) - int(now.Weekday()) + 7) % 7
		if ahead == 0 && strings.HasPrefix(m[0], "next") {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead).Format("2006-01-02")
	}
	return ""
}

// calendarDate resolves a day of month to the next such date on or after
// now, rolling into next year when it has passed.
func calendarDate(now time.Time, month time.Month, day string) (string, bool) {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(now.Year(), month, d, 0, 0, 0, 0, now.Location())
	if t.Month() != month {
		return "", false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t.Format("2006-01-02"), true
}

func extractTime(lower string) string {
	lower = reISODate.ReplaceAllString(lower, " ")
	if m := reClock.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if t, ok := clock(h, mm, m[3]); ok {
			return t
		}
	}
	if m := reMeridiem.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		if t, ok := clock(h, 0, m[2]); ok {
			return t
		}
	}
	if m := reOClock.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		if t, ok := clock(h, 0, ""); ok {
			return t
		}
	}
	switch {
	case containsWord(lower, "noon"):
		return "12:00"
	case containsWord(lower, "midnight"):
		return "00:00"
	}
	return ""
}

// hasMeridiem reports whether the guest pinned the half of the day.
func hasMeridiem(lower string) bool {
	if m := reClock.FindStringSubmatch(lower); m != nil && m[3] != "" {
		return true
	}
	if reMeridiem.MatchString(lower) {
		return true
	}
	for _, w := range []string{"morning", "noon", "midnight"} {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// evening moves an "HH:MM" reading between 01:00 and 11:59 twelve hours on.
func evening(t string) string {
	hh, mm, ok := strings.Cut(t, ":")
	h, err := strconv.Atoi(hh)
	if !ok || err != nil || h < 1 || h > 11 {
		return t
	}
	return fmt.Sprintf("%02d:%s", h+12, mm)
}

func clock(h, m int, meridiem string) (string, bool) {
	switch meridiem {
	case "pm":
		if h < 1 || h > 12 {
			return "", false
		}
		if h != 12 {
			h += 12
		}
	case "am":
		if h < 1 || h > 12 {
			return "", false
		}
		if h == 12 {
			h = 0
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

func extractParty(lower string) int {
	for _, re := range []*regexp.Regexp{rePeople, reParty, rePartyN} {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	// "for 4" unless the number is a time or date ("for 7pm", "for 7:30")
	for _, idx := range reFor.FindAllStringSubmatchIndex(lower, -1) {
		if timeOrDateFollows(lower[idx[1]:]) {
			continue
		}
		if n, err := strconv.Atoi(lower[idx[2]:idx[3]]); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func timeOrDateFollows(rest string) bool {
	rest = strings.TrimSpace(rest)
	for _, p := range []string{"am", "pm", "o'clock", "oclock", ":", "-", "/"} {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return len(rest) > 1 && rest[0] == '.' && rest[1] >= '0' && rest[1] <= '9'
}

func extractSection(lower string) (string, bool) {
	for _, s := range sectionSynonyms {
		for _, w := range s.words {
			if containsWord(lower, w) {
				return s.query, false
			}
		}
	}
	for _, p := range noPreference {
		if strings.Contains(lower, p) {
			return "", true
		}
	}
	return "", false
}

func extractPhone(raw string) string {
	// dates, times and references would otherwise read as digit runs
	s := reISODate.ReplaceAllString(raw, " ")
	s = reReference.ReplaceAllString(s, " ")
	s = reClock.ReplaceAllString(strings.ToLower(s), " ")
	for _, m := range rePhone.FindAllString(s, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 8 && digits <= 15 {
			return strings.Join(strings.Fields(m), " ")
		}
	}
	return ""
}

func extractName(raw string) string {
	m := reName.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	var parts []string
	for _, w := range strings.Fields(m[1]) {
		lw := strings.ToLower(w)
		if nameStops[lw] {
			break
		}
		if len(parts) == 0 && notNames[lw] {
			return ""
		}
		parts = append(parts, w)
	}
	return titleCase(strings.Join(parts, " "))
}

// LooksLikeName reports whether a whole message could be a bare name,
// such as "Priya Shah".
func LooksLikeName(text string) bool {
	text = strings.TrimSpace(text)
	if !reWords.MatchString(text) {
		return false
	}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if nameStops[w] || notNames[w] || greetings[w] || w == "yes" || w == "no" {
			return false
		}
	}
	return true
}

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true, "hola": true, "namaste": true, "thanks": true}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func containsWord(lower, word string) bool {
	i := 0
	for {
		j := strings.Index(lower[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		if (start == 0 || !isWordByte(lower[start-1])) && (end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
