package audit

import (
	"strings"
	"testing"
)

func TestBuildBaseQueryNumbersPlaceholders(t *testing.T) {
	query, args := buildBaseQuery("SELECT id", "t1", Filter{EntityType: "goal", EntityID: "g1"})
	if !strings.Contains(query, "entity_type = $2") || !strings.Contains(query, "entity_id = $3") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 3 || args[2] != "g1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestMarshalStateNilStaysNull(t *testing.T) {
	raw, err := marshalState(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil payload, got %q %v", raw, err)
	}
	raw, err = marshalState(map[string]int{"progress": 50})
	if err != nil || string(raw) != `{"progress":50}` {
		t.Fatalf("unexpected payload %q %v", raw, err)
	}
}
