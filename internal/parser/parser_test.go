package parser

import "testing"

func TestParseBasic(t *testing.T) {
	raw := []byte("ticker,price\nABC11,100.5\nXYZ12,99.1\n")
	rows := Parse(raw)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Get("ticker") != "ABC11" || rows[1].Get("price") != "99.1" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestParseShortAndLongRows(t *testing.T) {
	raw := []byte("a,b,c\n1,2\n4,5,6,7\n")
	rows := Parse(raw)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Get("c") != "" {
		t.Errorf("missing column should read empty, got %q", rows[0].Get("c"))
	}
	if rows[1].Get("c") != "6" {
		t.Errorf("extra column should be dropped, c = %q", rows[1].Get("c"))
	}
}

func TestParseSkipsEmptyLines(t *testing.T) {
	raw := []byte("ticker\nAAA11\n\n   \nBBB22\n")
	rows := Parse(raw)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestParseQuotedFields(t *testing.T) {
	raw := []byte("ticker,issuer\nABC11,\"Empresa, S.A.\"\n")
	rows := Parse(raw)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Get("issuer") != "Empresa, S.A." {
		t.Errorf("quoted field mangled: %q", rows[0].Get("issuer"))
	}
}

func TestParseMalformedRowDoesNotAbort(t *testing.T) {
	raw := []byte("a,b\nok,1\n\"broken,2\nok2,3\n")
	rows := Parse(raw)
	if len(rows) == 0 {
		t.Fatal("expected surviving rows around the malformed one")
	}
	if rows[0].Get("a") != "ok" {
		t.Errorf("first row lost: %v", rows[0])
	}
}

func TestParseGarbageInput(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("\x00\x01\x02")} {
		if rows := Parse(raw); len(rows) != 0 {
			t.Errorf("garbage input %q should yield no rows, got %d", raw, len(rows))
		}
	}
}

func TestParseStripsBOM(t *testing.T) {
	raw := []byte("\xEF\xBB\xBFticker\nAAA11\n")
	rows := Parse(raw)
	if len(rows) != 1 || rows[0].Get("ticker") != "AAA11" {
		t.Errorf("BOM not handled: %v", rows)
	}
}
