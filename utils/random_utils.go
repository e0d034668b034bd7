package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// RandomInt32 生成一个安全的随机32位整数
func RandomInt32() int32 {
	var num int32
	err := binary.Read(rand.Reader, binary.BigEndian, &num)
	if err != nil {
		panic("generate random int32 failed")
	}

	return num
}

// RandomDigits 生成指定位数的随机数字串，不足位补零
func RandomDigits(width int) string {
	n := uint32(RandomInt32())
	mod := uint32(1)
	for i := 0; i < width; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", width, n%mod)
}
