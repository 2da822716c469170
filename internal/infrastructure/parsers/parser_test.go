package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawRecord
	}{
		{
			name:  "single contact",
			input: `[{"kind": "contact", "name": "John Smith", "email": "john@x.com", "state": "SC"}]`,
			expected: []RawRecord{
				{Kind: "contact", Name: "John Smith", Email: "john@x.com", State: "SC", LineNum: 1},
			},
		},
		{
			name:  "mixed kinds",
			input: `[{"kind": "organization", "name": "Gulf Anglers Inc."}, {"kind": "action", "title": "Amendment 56"}]`,
			expected: []RawRecord{
				{Kind: "organization", Name: "Gulf Anglers Inc.", LineNum: 1},
				{Kind: "action", Title: "Amendment 56", LineNum: 2},
			},
		},
		{
			name:     "empty array",
			input:    "[]",
			expected: []RawRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &JSONParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestJSONParser_Parse_CommentRecord(t *testing.T) {
	input := `[{
		"kind": "comment",
		"name": "Jane Doe",
		"email": "jane@example.org",
		"organization": "Coastal Conservation Association",
		"title": "Snapper Grouper Amendment 56",
		"body": "Please keep the season open.",
		"submitted_at": "2024-03-01",
		"source_tag": "public-comments"
	}]`

	parser := &JSONParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 1)

	record := result[0]
	assert.Equal(t, KindComment, record.Kind)
	assert.Equal(t, "Jane Doe", record.Name)
	assert.Equal(t, "Coastal Conservation Association", record.Organization)
	assert.Equal(t, "Snapper Grouper Amendment 56", record.Title)
	assert.Equal(t, "2024-03-01", record.SubmittedAt)
	assert.Equal(t, "public-comments", record.SourceTag)
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "not json", input: "not json", errMsg: "parsing JSON"},
		{name: "empty input", input: "   ", errMsg: "input is empty"},
		{name: "trailing content", input: `[] []`, errMsg: "trailing content"},
		{name: "object instead of array", input: `{"kind": "contact"}`, errMsg: "validating records"},
		{name: "missing kind", input: `[{"name": "John"}]`, errMsg: "validating records"},
		{name: "unknown kind", input: `[{"kind": "vessel"}]`, errMsg: "validating records"},
		{name: "unknown field", input: `[{"kind": "contact", "nickname": "Jo"}]`, errMsg: "validating records"},
		{name: "wrong type", input: `[{"kind": "contact", "name": 42}]`, errMsg: "validating records"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &JSONParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCSVParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawRecord
	}{
		{
			name:  "kind and name only",
			input: "kind,name\norganization,Gulf Anglers Inc.\n",
			expected: []RawRecord{
				{Kind: "organization", Name: "Gulf Anglers Inc.", LineNum: 2},
			},
		},
		{
			name:     "empty CSV (header only)",
			input:    "kind,name,email\n",
			expected: nil,
		},
		{
			name:  "columns in different order with padded headers",
			input: "Email , Name,KIND\njohn@x.com,John Smith,contact\n",
			expected: []RawRecord{
				{Kind: "contact", Name: "John Smith", Email: "john@x.com", LineNum: 2},
			},
		},
		{
			name:  "unknown columns are ignored",
			input: "kind,title,notes\naction,Amendment 56,skip me\n",
			expected: []RawRecord{
				{Kind: "action", Title: "Amendment 56", LineNum: 2},
			},
		},
		{
			name:  "short rows",
			input: "kind,name,state\ncontact,John Smith\n",
			expected: []RawRecord{
				{Kind: "contact", Name: "John Smith", LineNum: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCSVParser_Parse_AllColumns(t *testing.T) {
	input := "kind,name,first_name,last_name,email,phone,job_title,city,state,sector,organization,org_type,title,description,phase,status,body,submitted_at,source_tag\n" +
		"comment,John Smith,John,Smith,john@x.com,843-555-0101,Captain,Charleston,SC,Commercial,Gulf Anglers Inc.,Industry,Amendment 56,Red snapper,Scoping,Open,Keep it open,2024-03-01,council-site\n"

	parser := &CSVParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 1)

	record := result[0]
	assert.Equal(t, "comment", record.Kind)
	assert.Equal(t, "John", record.FirstName)
	assert.Equal(t, "Smith", record.LastName)
	assert.Equal(t, "843-555-0101", record.Phone)
	assert.Equal(t, "Captain", record.JobTitle)
	assert.Equal(t, "Charleston", record.City)
	assert.Equal(t, "Commercial", record.Sector)
	assert.Equal(t, "Industry", record.OrgType)
	assert.Equal(t, "Red snapper", record.Description)
	assert.Equal(t, "Scoping", record.Phase)
	assert.Equal(t, "Open", record.Status)
	assert.Equal(t, "Keep it open", record.Body)
	assert.Equal(t, "council-site", record.SourceTag)
	assert.Equal(t, 2, record.LineNum)
}

func TestCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "missing kind column",
			input:  "name,email\nJohn,john@x.com\n",
			errMsg: "missing required column: kind",
		},
		{
			name:   "empty input",
			input:  "",
			errMsg: "reading CSV header",
		},
		{
			name:   "unterminated quote",
			input:  "kind,name\ncontact,\"John\n",
			errMsg: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestForFormat(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFormat("json"))
	assert.IsType(t, &CSVParser{}, ForFormat("CSV"))
	assert.Nil(t, ForFormat("unknown"))
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("records.json"))
	assert.IsType(t, &CSVParser{}, ForFile("contacts.CSV"))
	assert.Nil(t, ForFile("file.txt"))
	assert.Nil(t, ForFile("noextension"))
}
