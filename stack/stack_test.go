package stack

import (
	"slices"
	"testing"
)

const sampleStack = `goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/pocketmq/natsx.callHandler.func1()
	/home/dev/pocketmq/natsx/recover.go:18 +0x64
panic({0x5a1b20?, 0x6a51d0?})
	/usr/local/go/src/runtime/panic.go:792 +0x132
github.com/shandysiswandi/pocketmq/natsx.TestThing.func1(...)
	/home/dev/pocketmq/natsx/worker_test.go:44
`

func TestTrimKeepsModuleFrames(t *testing.T) {
	got := Trim([]byte(sampleStack), "pocketmq")
	want := []string{
		"pocketmq/natsx/recover.go:18",
		"pocketmq/natsx/worker_test.go:44",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Trim() = %v, want %v", got, want)
	}
}

func TestTrimNoMatch(t *testing.T) {
	if got := Trim([]byte(sampleStack), "someothermodule"); got != nil {
		t.Errorf("Trim() = %v, want nil", got)
	}
}

func TestTrimEmptyMarker(t *testing.T) {
	if got := Trim([]byte(sampleStack), ""); got != nil {
		t.Errorf("Trim() = %v, want nil", got)
	}
}
