//go:build !(amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || sparc64)

package capability

// NativeLongSize is the width of C long on 32-bit targets. GOARCH=wasm lands
// here too: its C counterpart is wasm32.
const NativeLongSize = 4
