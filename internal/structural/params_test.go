package structural

import "testing"

func TestDecodeParameters_Single(t *testing.T) {
	params := DecodeParameters("!fparameters{ {1|string|!name|orders|} }", "!fparameters", '{', '}')

	if len(params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(params))
	}
	p := params[0]
	if p.Index != "1" || p.Type != "string" || p.Name != "name" || p.Value != "orders" {
		t.Errorf("unexpected parameter: %+v", p)
	}
}

func TestDecodeParameters_Multiple(t *testing.T) {
	text := "header stuff !fparameters{ {1|string|!src_table|orders|extra} {2|int|!batch_size|500|} } trailing"
	params := DecodeParameters(text, "!fparameters", '{', '}')

	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	if params[0].Name != "src_table" || params[0].Value != "orders" {
		t.Errorf("unexpected first parameter: %+v", params[0])
	}
	if params[1].Name != "batch_size" || params[1].Value != "500" {
		t.Errorf("unexpected second parameter: %+v", params[1])
	}
}

func TestDecodeParameters_MissingValueIsEmpty(t *testing.T) {
	params := DecodeParameters("!fparameters{ {1|string|!name} }", "!fparameters", '{', '}')

	if len(params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(params))
	}
	if params[0].Name != "name" || params[0].Value != "" {
		t.Errorf("expected empty value, got %+v", params[0])
	}
}

func TestDecodeParameters_NameWithoutMarkerChar(t *testing.T) {
	params := DecodeParameters("!fparameters{ {1|string|plain_name|v|} }", "!fparameters", '{', '}')

	if len(params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(params))
	}
	if params[0].Name != "plain_name" {
		t.Errorf("expected name without marker kept intact, got %q", params[0].Name)
	}
}

func TestDecodeParameters_AbsentSection(t *testing.T) {
	params := DecodeParameters("{1|NODE|no params here|}", "!fparameters", '{', '}')
	if len(params) != 0 {
		t.Errorf("expected empty list for absent section, got %d", len(params))
	}
}

func TestDecodeParameters_MarkerWithoutRegion(t *testing.T) {
	params := DecodeParameters("!fparameters and nothing else", "!fparameters", '{', '}')
	if len(params) != 0 {
		t.Errorf("expected empty list for marker without region, got %d", len(params))
	}
}
