// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package entropy

import (
	"strings"
	"unicode"
)

// minWordLength is the shortest part that must be a known word. Shorter
// alphabetic parts ("id", "db", "v") are tolerated.
const minWordLength = 3

// Dictionary recognises identifiers assembled from common words, such as
// getUserAccountSettings or DEFAULT_CONNECTION_TIMEOUT_MILLIS.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary builds a dictionary from words (case-insensitive)
func NewDictionary(words []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			d.words[w] = struct{}{}
		}
	}
	return d
}

// DefaultDictionary returns the built-in programming and English vocabulary
func DefaultDictionary() *Dictionary {
	return NewDictionary(commonWords)
}

// Contains reports whether word is known
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToLower(word)]
	return ok
}

// IsWordy reports whether token consists only of known words once split on
// separators, digits and camelCase boundaries. At least one known word is
// required, so pure digit or symbol runs are not wordy.
func (d *Dictionary) IsWordy(token string) bool {
	known := 0
	for _, part := range SplitWords(token) {
		if len(part) < minWordLength {
			continue
		}
		if !d.Contains(part) {
			return false
		}
		known++
	}
	return known > 0
}

// SplitWords breaks an identifier into its alphabetic parts
func SplitWords(token string) []string {
	var (
		parts   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, string(current))
			current = current[:0]
		}
	}

	runes := []rune(token)
	for i, r := range runes {
		if !unicode.IsLetter(r) {
			flush()
			continue
		}
		if len(current) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			// fooBar, and the R in HTTPRequest
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()
	return parts
}

var commonWords = strings.Fields(`
	able about access account action active adapter add address admin after agent
	alert all allow alpha amount analytics and android any apache api app append
	application apply archive are area args array asset async attribute audio auth
	author auto available back backend backup bad base basic batch bearer before
	begin beta between binary bind block blog body book bool boolean bot bound box
	branch bucket buffer build builder bundle button byte bytes cache calendar call
	callback can cancel card case catalog category cert certificate change channel
	char chart chat check child class clean clear click client clone close cloud
	cluster code collection color column command comment commit common company
	compare component config configuration connect connection console constant
	container content context control controller cookie copy core count counter
	country create credential credentials current cursor custom customer daemon
	dashboard data database date day debug decode default define delete deploy
	deployment description design detail details dev device dialog dictionary
	directory disable display document domain done download driver dummy duration
	dynamic each edit element email empty enable encode end endpoint engine entity
	entry env environment error event example exception exec execute exit expire
	export extension external factory fail failed fake false feature fetch field
	file filter final find first flag float folder font for form format forward
	frame from front function gateway generate generic get global group guard
	handle handler hash header health height hello help helper hidden history home
	hook host hour http https icon image import index info init initial input insert
	instance integer interface internal interval invalid item items java job json
	key keys kind label language last layout length level library license limit line
	link list listener load local locale location lock log logger login logout long
	lookup main manager map mapping mark master match max media member memory menu
	merge message meta method middleware min minute mock mode model module monitor
	month more name native network new next node none not null number object offset
	old only open operation option options order output owner package page param
	parameter parent parse parser pass password patch path pattern payload payment
	pending permission placeholder platform plugin pointer policy pool port post
	prefix preview primary print private process producer product production profile
	project property protocol provider proxy public publish query queue random range
	read reader record redirect reference refresh region register registry release
	remote remove render replace report repository request required reset resolve
	resource response rest result retry return role root route router rule run
	runner runtime sample save scan schema scope screen script search second secret
	section secure security select sender server service session set settings setup
	shared shell short show sign signature simple size sleep slot socket sort source
	spec stack stage standard start state static status step storage store stream
	string struct style subject submit success summary support sync system table tag
	target task template temp temporary tenant test text the theme thread time
	timeout timer timestamp title token tool total trace tracker transaction
	transform true type unique unit update upload url user username utils valid
	validate validation validator value values version view visible volume wait
	warning web webhook width window with worker workflow write writer year your
	zone
`)
