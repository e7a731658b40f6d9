// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// mica-render renders a small demo scene to a PNG file.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"math"
	"os"

	"honnef.co/go/curve"
	"honnef.co/go/mica"
	"honnef.co/go/mica/gfx"
)

func main() {
	out := flag.String("o", "out.png", "output file")
	width := flag.Uint("w", 1024, "image width")
	height := flag.Uint("h", 768, "image height")
	flag.Parse()

	w := float64(*width)
	h := float64(*height)

	var scene mica.Scene
	scene.FillRect(0, 0, w, h/2, gfx.RGB(0.43, 0.73, 0.95))
	scene.FillRect(0, h/2, w, h, gfx.RGB(0.37, 0.62, 0.29))

	// A ring of circles, drawn inside a translated group.
	scene.PushGroup(curve.Vec(w/2, h/2))
	for i := 0; i < 12; i++ {
		a := float64(i) / 12 * 2 * math.Pi
		scene.Circle(
			curve.Point{X: math.Cos(a) * 200, Y: math.Sin(a) * 200},
			40,
			gfx.RGBA(1, float32(i)/12, 0.2, 0.8),
		)
	}
	scene.PopGroup()

	pts := make([]curve.Point, 0, 65)
	for i := 0; i <= 64; i++ {
		x := float64(i) / 64
		pts = append(pts, curve.Point{
			X: x * w,
			Y: h/2 + math.Sin(x*4*math.Pi)*h/8,
		})
	}
	scene.Polyline(pts, 6, gfx.RGB(0.1, 0.1, 0.1))

	scene.Line(
		curve.Point{X: 32, Y: 32},
		curve.Point{X: w - 32, Y: 32},
		12,
		gfx.RGBA(0.9, 0.9, 0.9, 0.9),
	)

	img, err := mica.NewRenderer().Render(&scene, uint32(*width), uint32(*height), gfx.RGB(1, 1, 1))
	if err != nil {
		log.Fatalln("rendering:", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalln(err)
	}
	if err := png.Encode(f, img); err != nil {
		log.Fatalln("encoding PNG:", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalln(err)
	}
	fmt.Println("wrote", *out)
}
