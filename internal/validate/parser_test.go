package validate

import (
	"reflect"
	"testing"
)

func TestParseCategoryMap_Direct(t *testing.T) {
	res := ParseCategoryMap(`{"landmarks":["Eiffel Tower"],"museums":["Louvre"]}`)
	if !res.Valid {
		t.Fatalf("expected valid, got invalid: %s", res.Reason)
	}
	if !reflect.DeepEqual(res.Map.Keys, []string{"landmarks", "museums"}) {
		t.Errorf("unexpected key order: %v", res.Map.Keys)
	}
	if got := res.Map.Entries["landmarks"]; len(got) != 1 || got[0] != "Eiffel Tower" {
		t.Errorf("unexpected landmarks: %v", got)
	}
}

func TestParseCategoryMap_CodeFence(t *testing.T) {
	res := ParseCategoryMap("```json\n{\"parks\":[\"Hyde Park\"]}\n```")
	if !res.Valid {
		t.Fatalf("expected valid after fence strip, got: %s", res.Reason)
	}
	if got := res.Map.Entries["parks"]; len(got) != 1 || got[0] != "Hyde Park" {
		t.Errorf("unexpected parks: %v", got)
	}
}

func TestParseCategoryMap_BareFence(t *testing.T) {
	res := ParseCategoryMap("```\n{\"cafes\":[\"Cafe A\"]}\n```")
	if !res.Valid {
		t.Fatalf("expected valid, got: %s", res.Reason)
	}
}

func TestParseCategoryMap_StripsMarkup(t *testing.T) {
	res := ParseCategoryMap(`{"museums":["<b>Louvre</b>","Orsay <br/>"]}`)
	if !res.Valid {
		t.Fatalf("expected valid, got: %s", res.Reason)
	}
	got := res.Map.Entries["museums"]
	if !reflect.DeepEqual(got, []string{"Louvre", "Orsay"}) {
		t.Errorf("markup not stripped: %v", got)
	}
}

func TestParseCategoryMap_RoundTrip(t *testing.T) {
	res := ParseCategoryMap(`{"a":["x"],"b":["y","z"],"c":[]}`)
	if !res.Valid {
		t.Fatalf("expected valid, got: %s", res.Reason)
	}
	if len(res.Map.Keys) != 3 || len(res.Map.Entries) != 3 {
		t.Errorf("keys added or removed: %v", res.Map.Keys)
	}
}

func TestParseCategoryMap_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":         "here are some places you might like",
		"json array":       `["a","b"]`,
		"scalar value":     `{"museums":"Louvre"}`,
		"non-string items": `{"museums":[1,2]}`,
		"trailing content": `{"a":["x"]} and more`,
		"empty":            "",
		"truncated":        `{"a":["x"`,
	}
	for name, input := range cases {
		if res := ParseCategoryMap(input); res.Valid {
			t.Errorf("%s: expected invalid for %q", name, input)
		}
	}
}

func TestParseCategoryList(t *testing.T) {
	got := ParseCategoryList("museums, landmarks\nparks")
	want := []string{"museums", "landmarks", "parks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseCategoryList_Empty(t *testing.T) {
	if got := ParseCategoryList("   \n  "); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}
