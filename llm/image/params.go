package image

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultSize 默认尺寸
	DefaultSize = "1024x1024"
	// DefaultAspectRatio 默认宽高比
	DefaultAspectRatio = "1:1"
)

// ratioToSize 常用宽高比对应的像素尺寸
var ratioToSize = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1366x768",
	"9:16": "768x1366",
	"4:3":  "1024x768",
	"3:4":  "768x1024",
	"3:2":  "1024x683",
	"2:3":  "683x1024",
	"21:9": "1366x585",
	"9:21": "585x1366",
}

// NormalizeSizeAndRatio 补全 size 与 aspect_ratio：
//   - 两者都有：原样返回
//   - 两者都没有：1024x1024, 1:1
//   - 只有 ratio：查表得到 size，未知比例用 1024x1024
//   - 只有 size：按最大公约数约分得到 ratio，无法解析时为 1:1
func NormalizeSizeAndRatio(size, ratio string) (string, string) {
	switch {
	case size != "" && ratio != "":
		return size, ratio
	case size == "" && ratio == "":
		return DefaultSize, DefaultAspectRatio
	case size == "":
		return RatioToSize(ratio), ratio
	default:
		return size, SizeToRatio(size)
	}
}

// RatioToSize 查表把宽高比转成尺寸
func RatioToSize(ratio string) string {
	if s, ok := ratioToSize[strings.ToLower(strings.TrimSpace(ratio))]; ok {
		return s
	}
	return DefaultSize
}

// SizeToRatio 把 WxH 约分为 W:H
func SizeToRatio(size string) string {
	parts := strings.Split(strings.ToLower(size), "x")
	if len(parts) != 2 {
		return DefaultAspectRatio
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return DefaultAspectRatio
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return DefaultAspectRatio
	}
	if w <= 0 || h <= 0 {
		return DefaultAspectRatio
	}
	d := gcd(w, h)
	return fmt.Sprintf("%d:%d", w/d, h/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
