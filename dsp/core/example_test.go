package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-soundgraph/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(44100),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d\n", cfg.SampleRate, cfg.BlockSize)

	// Output:
	// sampleRate=44100 blockSize=512
}

func ExampleWrap01() {
	fmt.Println(core.Wrap01(1.25), core.Wrap01(-0.25))

	// Output:
	// 0.25 0.75
}
