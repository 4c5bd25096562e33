package qsim

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		config := NewConfig()

		Convey("It should validate", func() {
			So(config.Validate(), ShouldBeNil)
			So(config.FusionMinQubits, ShouldEqual, 4)
			So(config.FusionMaxQubits, ShouldEqual, 5)
			So(config.Tolerance, ShouldEqual, 1e-12)
		})

		Convey("Out of range settings should be rejected", func() {
			config.FusionMaxQubits = 6
			So(config.Validate(), ShouldNotBeNil)

			config = NewConfig()
			config.FusionMinQubits = 5
			config.FusionMaxQubits = 3
			So(config.Validate(), ShouldNotBeNil)

			config = NewConfig()
			config.Kernel = "gpu"
			So(config.Validate(), ShouldNotBeNil)

			config = NewConfig()
			config.Precision = "quad"
			So(config.Validate(), ShouldNotBeNil)
		})
	})

	Convey("Given a configuration file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "qsim.yaml")
		err := os.WriteFile(path, []byte("seed: 42\nfusion: false\nkernel: simd\nmax_qubits: 20\n"), 0o644)
		So(err, ShouldBeNil)

		Convey("LoadConfig should merge it over the defaults", func() {
			config, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(config.Seed, ShouldEqual, uint64(42))
			So(config.Fusion, ShouldBeFalse)
			So(config.Kernel, ShouldEqual, KernelSIMD)
			So(config.MaxQubits, ShouldEqual, 20)
			So(config.FusionMaxQubits, ShouldEqual, 5)
		})

		Convey("Environment variables should override the file", func() {
			t.Setenv("QSIM_SEED", "7")

			config, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(config.Seed, ShouldEqual, uint64(7))
		})
	})

	Convey("Given a missing configuration file", t, func() {
		Convey("LoadConfig should fail", func() {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given an invalid value in the environment", t, func() {
		t.Setenv("QSIM_KERNEL", "fpga")

		Convey("LoadConfig should report the validation error", func() {
			_, err := LoadConfig("")
			So(err, ShouldNotBeNil)
		})
	})
}
