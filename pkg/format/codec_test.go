/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package format

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(kv ...any) Record {
	var r Record
	for i := 0; i+1 < len(kv); i += 2 {
		var v Value
		switch x := kv[i+1].(type) {
		case string:
			v = NewString(x)
		case int:
			v = NewNumber(float64(x))
		case float64:
			v = NewNumber(x)
		case bool:
			v = NewBool(x)
		case Value:
			v = x
		case nil:
			v = Null()
		}
		r.Set(kv[i].(string), v)
	}
	return r
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RecordSet
		wantErr bool
	}{
		{
			name:  "header and rows",
			input: "name,age\nAda,32\nAlan,41",
			want:  RecordSet{rec("name", "Ada", "age", "32"), rec("name", "Alan", "age", "41")},
		},
		{
			name:  "blank lines are skipped",
			input: "\nname,age\n\nAda,32\n\n",
			want:  RecordSet{rec("name", "Ada", "age", "32")},
		},
		{
			name:  "quoted field with comma",
			input: "name,age\n\"Lovelace, Ada\",32",
			want:  RecordSet{rec("name", "Lovelace, Ada", "age", "32")},
		},
		{
			name:  "short row keeps present fields",
			input: "a,b,c\n1,2",
			want:  RecordSet{rec("a", "1", "b", "2")},
		},
		{
			name:  "long row drops extra cells",
			input: "a,b\n1,2,3",
			want:  RecordSet{rec("a", "1", "b", "2")},
		},
		{
			name:    "header only",
			input:   "name,age\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:  "bare quote inside a field is literal",
			input: "name,height\nAda,5'10\"\nAl\"an,6'",
			want:  RecordSet{rec("name", "Ada", "height", "5'10\""), rec("name", "Al\"an", "height", "6'")},
		},
		{
			name:  "row of empty values is kept",
			input: "a,b\n,\n1,2",
			want:  RecordSet{rec("a", "", "b", ""), rec("a", "1", "b", "2")},
		},
		{
			name:  "whitespace-only line is skipped",
			input: "a,b\n   \n1,2",
			want:  RecordSet{rec("a", "1", "b", "2")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNoData))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCSV() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializeCSV(t *testing.T) {
	records := RecordSet{
		rec("a", 1, "b", 2),
		rec("a", 3, "c", 4),
		rec("b", "x,y"),
	}
	assert.Equal(t, "a,b\n1,2\n3,\n,x,y", SerializeCSV(records))
	assert.Equal(t, "", SerializeCSV(nil))
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RecordSet
		wantErr bool
	}{
		{
			name:  "array of objects",
			input: `[{"a":1},{"a":2}]`,
			want:  RecordSet{rec("a", 1), rec("a", 2)},
		},
		{
			name:  "single object becomes one record",
			input: `{"name":"Ada","active":true,"team":null}`,
			want:  RecordSet{rec("name", "Ada", "active", true, "team", nil)},
		},
		{
			name:  "key order is preserved",
			input: `{"z":1,"a":2,"m":3}`,
			want:  RecordSet{rec("z", 1, "a", 2, "m", 3)},
		},
		{
			name:  "nested values are kept as compact json",
			input: `[{"tags": ["x", "y"], "meta": {"k": 1}}]`,
			want:  RecordSet{rec("tags", NewRaw(`["x","y"]`), "meta", NewRaw(`{"k":1}`))},
		},
		{
			name:  "scalar elements pass through",
			input: `[1, "x"]`,
			want: RecordSet{
				{Scalar: func() *Value { v := NewNumber(1); return &v }()},
				{Scalar: func() *Value { v := NewString("x"); return &v }()},
			},
		},
		{name: "empty array", input: `[]`, wantErr: true},
		{name: "invalid json", input: `{"a":`, wantErr: true},
		{name: "not json", input: `name,age`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoData)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseJSON() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializeJSON(t *testing.T) {
	t.Run("strings stay strings", func(t *testing.T) {
		records := RecordSet{rec("name", "Ada", "age", "32"), rec("name", "Alan", "age", "41")}
		want := `[
  {
    "name": "Ada",
    "age": "32"
  },
  {
    "name": "Alan",
    "age": "41"
  }
]`
		assert.Equal(t, want, SerializeJSON(records))
	})

	t.Run("typed and nested values", func(t *testing.T) {
		records := RecordSet{rec("n", 1.5, "ok", false, "none", nil, "a", NewRaw(`{"b":[1,2]}`))}
		want := `[
  {
    "n": 1.5,
    "ok": false,
    "none": null,
    "a": {
      "b": [
        1,
        2
      ]
    }
  }
]`
		assert.Equal(t, want, SerializeJSON(records))
	})

	t.Run("escapes", func(t *testing.T) {
		records := RecordSet{rec("q", "say \"hi\"\n\t\\ \x01 é")}
		want := "[\n  {\n    \"q\": \"say \\\"hi\\\"\\n\\t\\\\ \\u0001 é\"\n  }\n]"
		assert.Equal(t, want, SerializeJSON(records))
	})

	t.Run("first record is the schema", func(t *testing.T) {
		records := RecordSet{rec("a", 1, "b", 2), rec("b", 3, "c", 4)}
		want := "[\n  {\n    \"a\": 1,\n    \"b\": 2\n  },\n  {\n    \"a\": \"\",\n    \"b\": 3\n  }\n]"
		assert.Equal(t, want, SerializeJSON(records))
	})

	t.Run("empty record and empty set", func(t *testing.T) {
		assert.Equal(t, "[\n  {}\n]", SerializeJSON(RecordSet{{}}))
		assert.Equal(t, "[]", SerializeJSON(nil))
	})
}

func TestRecordMarshalJSON(t *testing.T) {
	r := rec("z", 1, "a", "x", "n", NewRaw(`[1,2]`))
	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","n":[1,2]}`, string(b))
}

func TestParseMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RecordSet
		wantErr bool
	}{
		{
			name:  "simple table",
			input: "| a | b |\n| --- | --- |\n| 1 | 2 |",
			want:  RecordSet{rec("a", "1", "b", "2")},
		},
		{
			name:  "indented with blank lines",
			input: "\n  | a | b |\n\n  |---|---|\n  | 1 | 2 |\n  | 3 | 4 |\n",
			want:  RecordSet{rec("a", "1", "b", "2"), rec("a", "3", "b", "4")},
		},
		{
			name:  "second line is skipped whatever it holds",
			input: "| a | b |\n| xx |\n| 1 | 2 |",
			want:  RecordSet{rec("a", "1", "b", "2")},
		},
		{
			name:  "rows with a different cell count are dropped",
			input: "| a | b |\n| --- | --- |\n| 1 |\n| 5 | 6 |\n| 1 | 2 | 3 |",
			want:  RecordSet{rec("a", "5", "b", "6")},
		},
		{
			name:    "no matching rows",
			input:   "| a | b |\n| --- | --- |\n| 1 |\n| 1 | 2 | 3 |",
			wantErr: true,
		},
		{
			name:  "empty cells keep their column",
			input: "| a | b | c |\n| --- | --- | --- |\n| 1 |  | 3 |\n|  | 2 |  |",
			want:  RecordSet{rec("a", "1", "b", "", "c", "3"), rec("a", "", "b", "2", "c", "")},
		},
		{
			name:  "rows without outer pipes",
			input: "a | b\n--- | ---\n1 | 2",
			want:  RecordSet{rec("a", "1", "b", "2")},
		},
		{
			name:    "fewer than three lines",
			input:   "| a | b |\n| --- | --- |",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMarkdown(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoData)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseMarkdown() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializeMarkdown(t *testing.T) {
	records := RecordSet{rec("a", 1, "b", "x"), rec("a", 2)}
	assert.Equal(t, "| a | b |\n| --- | --- |\n| 1 | x |\n| 2 |  |", SerializeMarkdown(records))
}

func TestParseTOML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RecordSet
		wantErr bool
	}{
		{
			name:  "records with typed values",
			input: "[[records]]\nname = \"Ada\"\nage = 32\n\n[[records]]\nnote\n\n[[records]]\nname = Alan\nage = 4.5e1",
			want:  RecordSet{rec("name", "Ada", "age", 32), rec("name", "Alan", "age", 45)},
		},
		{
			name:  "text before the first header is a record",
			input: "title = \"x\"\n[[records]]\na = 1",
			want:  RecordSet{rec("title", "x"), rec("a", 1)},
		},
		{
			name:  "non numeric words stay strings",
			input: "[[records]]\nflag = true\nn = NaN",
			want:  RecordSet{rec("flag", "true", "n", "NaN")},
		},
		{
			name:    "no assignments",
			input:   "[[records]]\n# nothing here\n",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTOML(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoData)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseTOML() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerializeTOML(t *testing.T) {
	records := RecordSet{
		rec("name", "Ada", "age", 32, "ok", true, "none", nil),
		rec("age", 0.5, "x", 1),
	}
	want := "[[records]]\nname = \"Ada\"\nage = 32\nok = \"true\"\nnone = \"\"\n\n[[records]]\nname = \"\"\nage = 0.5\nok = \"\"\nnone = \"\""
	assert.Equal(t, want, SerializeTOML(records))
	assert.Equal(t, "", SerializeTOML(nil))
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		1:            "1",
		-42:          "-42",
		1.5:          "1.5",
		0.000001:     "0.000001",
		1e-7:         "1e-7",
		1e21:         "1e+21",
		123456789012: "123456789012",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatNumber(in), "formatNumber(%v)", in)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		kind    Kind
		records RecordSet
	}{
		{
			kind: CSV,
			records: RecordSet{
				rec("name", "Ada", "team", "Engines", "height", "5'10\""),
				rec("name", "", "team", "", "height", ""),
				rec("name", "Alan", "team", "", "height", "6'"),
			},
		},
		{
			kind: JSON,
			records: RecordSet{
				rec("name", "Ada", "age", 32, "ok", true, "none", nil, "tags", NewRaw(`["a","b"]`)),
				rec("name", "Alan", "age", 41, "ok", false, "none", nil, "tags", NewRaw(`[]`)),
			},
		},
		{
			kind: Markdown,
			records: RecordSet{
				rec("name", "Ada", "team", "", "age", "32"),
				rec("name", "", "team", "Bletchley", "age", ""),
				rec("name", "Alan", "team", "Bletchley", "age", "41"),
			},
		},
		{
			kind:    TOML,
			records: RecordSet{rec("name", "Ada", "age", 32), rec("name", "Alan", "age", 0.25)},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			text := Serialize(tt.records, tt.kind)
			assert.Equal(t, tt.kind, Detect(text))
			got, err := Parse(text, tt.kind)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.records, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConversionScenarios(t *testing.T) {
	records, err := Parse("name,age\nAda,32\nAlan,41", Detect("name,age\nAda,32\nAlan,41"))
	require.NoError(t, err)
	want := "[\n  {\n    \"name\": \"Ada\",\n    \"age\": \"32\"\n  },\n  {\n    \"name\": \"Alan\",\n    \"age\": \"41\"\n  }\n]"
	assert.Equal(t, want, Serialize(records, JSON))

	records, err = Parse(`[{"a":1},{"a":2}]`, JSON)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n2", Serialize(records, CSV))
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Parse("a", CSV)
	assert.Error(t, err)
	_, err = r.Serialize(nil, CSV)
	assert.Error(t, err)
	assert.Equal(t, "", Serialize(nil, Kind("yaml")))
}

func TestRecordUnmarshalJSON(t *testing.T) {
	var records RecordSet
	require.NoError(t, json.Unmarshal([]byte(`[{"z":1,"a":"x","n":[1,2]},"s"]`), &records))
	scalar := NewString("s")
	want := RecordSet{rec("z", 1, "a", "x", "n", NewRaw(`[1,2]`)), {Scalar: &scalar}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("UnmarshalJSON() mismatch (-want +got):\n%s", diff)
	}
}
