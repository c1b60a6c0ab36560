//go:build windows && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x || sparc64)

package capability

// NativeLongSize is the width of C long on 64-bit Windows, which is LLP64.
const NativeLongSize = 4
