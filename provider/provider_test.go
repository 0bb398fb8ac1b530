package provider

import "testing"

func TestUsedMemory(t *testing.T) {
	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_rss:2000000\r\n"
	n, err := UsedMemory(info)
	if err != nil || n != 1048576 {
		t.Fatalf("got %d, %v", n, err)
	}
	if _, err := UsedMemory("# Memory\r\nmaxmemory:0\r\n"); err == nil {
		t.Fatal("expected error when used_memory is missing")
	}
	if _, err := UsedMemory("used_memory:lots\n"); err == nil {
		t.Fatal("expected parse error")
	}
}
