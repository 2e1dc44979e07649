package merklemap

/*
merklescrape — MerkleMap search scraper for Certificate Transparency data
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

/*
Package merklemap talks to the MerkleMap search API and turns its result pages into
flat records.

A search is paginated by a zero-based page index. Every page is fetched with one GET
and decoded into a Page whose Results are kept as raw JSON fields, so that a missing
field can be told apart from an empty one when the page is processed.
*/

import "encoding/json"

// Constants describing the MerkleMap search endpoint.
const (
	// DefaultBaseURL is the MerkleMap API origin.
	DefaultBaseURL = "https://api.merklemap.com"
	// SearchPath is the path of the search endpoint relative to DefaultBaseURL.
	SearchPath = "/search"
	// DefaultQuery is the fixed search pattern scraped by this tool.
	DefaultQuery = "*.vercel.app"
)

// Result field names as they appear in the API response.
const (
	FieldDomain            = "domain"
	FieldSubjectCommonName = "subject_common_name"
	FieldNotBefore         = "not_before"
)

// RawResult is one entry of a search page as returned by the API.
// Fields are left undecoded: a nil RawMessage means the key was absent.
type RawResult struct {
	Domain            json.RawMessage `json:"domain"`
	SubjectCommonName json.RawMessage `json:"subject_common_name"`
	NotBefore         json.RawMessage `json:"not_before"`
}

// Page is a decoded search response.
type Page struct {
	Number  int
	Results []RawResult
}

// searchResponse is the wire shape of the search endpoint.
// Results is a pointer so that an absent or null "results" key can be detected.
type searchResponse struct {
	Results *[]RawResult `json:"results"`
}

// Record is a normalized search result, ready to be written as one CSV row.
type Record struct {
	Domain            string
	SubjectCommonName string
	NotBefore         string
}

// Row returns the record's fields in output column order.
func (r Record) Row() []string {
	return []string{r.Domain, r.SubjectCommonName, r.NotBefore}
}
