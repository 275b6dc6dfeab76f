// Package normalization provides the canonicalization rules used for
// content-addressed identity derivation and parse dedup hashing.
//
// Two canonical forms exist: a string form for identity key components
// (parser names, chunker names, user identifiers) and a markdown form used
// only to compute the dedup/verification hash of parsed text. The markdown
// canonical form never alters what is stored or displayed.
package normalization

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	separatorRunPattern = regexp.MustCompile(`[_\-\s]+`)
	colonRunPattern     = regexp.MustCompile(`:{2,}`)

	headingPattern  = regexp.MustCompile(`^(#{1,6})[ \t]*(.*)$`)
	imagePattern    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	bulletPattern   = regexp.MustCompile(`^([ \t]*)[*+]([ \t]+)`)
	spaceRunPattern = regexp.MustCompile(` {2,}`)
)

const fenceMarker = "```"

// CanonicalizeString normalizes an identity key component: lowercase,
// runs of underscores, hyphens, and whitespace become a single colon,
// repeated colons collapse, and leading/trailing colons are stripped.
func CanonicalizeString(s string) string {
	s = strings.ToLower(s)
	s = separatorRunPattern.ReplaceAllString(s, ":")
	s = colonRunPattern.ReplaceAllString(s, ":")
	return strings.Trim(s, ":")
}

// CanonicalizeMarkdown normalizes markdown into the stable byte form used
// for parse hashing. The transform is idempotent:
// CanonicalizeMarkdown(CanonicalizeMarkdown(x)) == CanonicalizeMarkdown(x).
//
// Rules, in order: line endings become \n; control characters below 0x20
// other than \n and \t are removed; trailing whitespace is stripped per
// line; runs of blank lines collapse to one; heading markers, image and
// link references, and bullet markers are normalized and runs of spaces
// collapse, all skipping fenced code block contents; output ends with
// exactly one trailing newline.
//
// Control characters go first: stripping them can expose new space runs or
// blank lines, which only stays idempotent when the collapse rules run on
// the already-stripped text.
func CanonicalizeMarkdown(markdown string) string {
	normalized := strings.ReplaceAll(markdown, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = stripControlCharacters(normalized)

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	lines = collapseBlankLines(lines)

	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(line, fenceMarker) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lines[i] = canonicalizeProseLine(line)
	}

	result := strings.Join(lines, "\n")
	result = strings.TrimRight(result, " \t\n")
	return result + "\n"
}

// ComputeParsedSHA256 returns the hex SHA-256 of the canonicalized markdown.
// This is the dedup/verification key for parse artifacts: re-parsing the
// same document with the same parser must reproduce this hash, otherwise
// the caller records a PARSE_HASH_MISMATCH condition.
func ComputeParsedSHA256(markdown string) string {
	sum := sha256.Sum256([]byte(CanonicalizeMarkdown(markdown)))
	return hex.EncodeToString(sum[:])
}

// collapseBlankLines reduces every run of two or more blank lines to a
// single blank line. Whitespace-only lines count as blank so the collapse
// stays idempotent with trailing-whitespace stripping.
func collapseBlankLines(lines []string) []string {
	collapsed := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
			collapsed = append(collapsed, "")
			continue
		}
		blankRun = 0
		collapsed = append(collapsed, line)
	}
	return collapsed
}

// canonicalizeProseLine applies the per-line rules for text outside fenced
// code blocks.
func canonicalizeProseLine(line string) string {
	if m := headingPattern.FindStringSubmatch(line); m != nil {
		if m[2] == "" {
			line = m[1]
		} else {
			line = m[1] + " " + m[2]
		}
	}

	// Images first: the image replacement leaves no URL for the link rule
	// to re-match.
	line = imagePattern.ReplaceAllString(line, "![img]")
	line = linkPattern.ReplaceAllString(line, "[$1]")

	line = bulletPattern.ReplaceAllString(line, "${1}-${2}")
	line = spaceRunPattern.ReplaceAllString(line, " ")
	return strings.TrimRight(line, " \t")
}

// stripControlCharacters removes code points below 0x20 except \n and \t.
func stripControlCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
