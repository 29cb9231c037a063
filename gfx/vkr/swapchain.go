// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

type frameSync struct {
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	last           *submission
}

// swapchain is one swapchain entity with everything sized after it. It is
// rebuilt as a whole on recreation.
type swapchain struct {
	drv    driver
	device vk.Device
	window gfx.Window

	swapchain    vk.Swapchain
	hasSwapchain bool
	// set once the handle was passed as OldSwapchain
	retired      bool
	format       gfx.Format
	depthFormat  gfx.Format
	samples      gfx.SampleCount
	extent       gfx.Extent2D
	// pixel size of the window the swapchain was sized for
	pixelWidth, pixelHeight uint32

	views        []vk.ImageView
	depth        *Image
	depthView    []vk.ImageView
	color        *Image
	colorView    []vk.ImageView
	renderPass   []vk.RenderPass
	framebuffers []vk.Framebuffer
	frames       []frameSync

	frame      int
	imageIndex uint32
	state      gfx.FrameState
}

// releaseAttachments destroys everything sized after the swapchain images,
// leaving the swapchain itself. It can be called more than once.
func (sc *swapchain) releaseAttachments() {
	for _, fb := range sc.framebuffers {
		sc.drv.DestroyFramebuffer(sc.device, fb)
	}
	sc.framebuffers = nil
	for _, view := range sc.views {
		sc.drv.DestroyImageView(sc.device, view)
	}
	sc.views = nil
	for _, view := range append(sc.depthView, sc.colorView...) {
		sc.drv.DestroyImageView(sc.device, view)
	}
	sc.depthView, sc.colorView = nil, nil
	if sc.depth != nil {
		sc.depth.Release()
		sc.depth = nil
	}
	if sc.color != nil {
		sc.color.Release()
		sc.color = nil
	}
}

func (sc *swapchain) Release() {
	sc.releaseAttachments()
	for _, pass := range sc.renderPass {
		sc.drv.DestroyRenderPass(sc.device, pass)
	}
	sc.renderPass = nil
	for _, f := range sc.frames {
		sc.drv.DestroySemaphore(sc.device, f.imageAvailable)
		sc.drv.DestroySemaphore(sc.device, f.renderFinished)
	}
	sc.frames = nil
	if sc.hasSwapchain {
		sc.drv.DestroySwapchain(sc.device, sc.swapchain)
		sc.hasSwapchain = false
	}
}

func chooseSurfaceFormat(available []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(available) == 1 && available[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: available[0].ColorSpace}, nil
	}
	for _, f := range available {
		if f.Format == vk.FormatB8g8r8a8Unorm {
			return f, nil
		}
	}
	for _, f := range available {
		if fromVkFormat(f.Format) != gfx.FormatUndefined {
			return f, nil
		}
	}
	return vk.SurfaceFormat{}, errors.Wrap(gfx.ErrUnsupportedFormat, "no usable surface format")
}

func choosePresentMode(available []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, preferred := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, mode := range available {
			if mode == preferred {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if max != 0 && v > max {
		return max
	}
	return v
}

// retiring returns the native handle to pass as OldSwapchain. Vulkan
// retires it on that call whether creation succeeds or not, so it is
// handed out once.
func (sc *swapchain) retiring() vk.Swapchain {
	if sc == nil || !sc.hasSwapchain || sc.retired {
		return nil
	}
	sc.retired = true
	return sc.swapchain
}

func createSwapchain(s *Session, window gfx.Window, old *swapchain) (*swapchain, error) {
	if window == nil {
		return nil, errors.Wrap(gfx.ErrInvalidParameters, "no window")
	}
	surface, ok := s.surface()
	if !ok {
		return nil, errors.Wrap(gfx.ErrInvalidParameters, "session was created without a surface")
	}
	width, height := window.PixelSize()
	if width == 0 || height == 0 {
		return nil, errors.Wrap(gfx.ErrInvalidParameters, "window has no drawable area")
	}

	caps, err := s.drv.SurfaceCapabilities(s.physicalDevice, surface)
	if err != nil {
		return nil, err
	}
	surfaceFormats, err := s.drv.SurfaceFormats(s.physicalDevice, surface)
	if err != nil {
		return nil, err
	}
	surfaceFormat, err := chooseSurfaceFormat(surfaceFormats)
	if err != nil {
		return nil, err
	}
	presentModes, err := s.drv.PresentModes(s.physicalDevice, surface)
	if err != nil {
		return nil, err
	}
	depthFormat, err := findSupportedFormat(s, gfx.DepthFormatCandidates, gfx.TilingOptimal, gfx.FeatureDepthStencilAttachment)
	if err != nil {
		return nil, err
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	sc := &swapchain{
		drv:         s.drv,
		device:      s.device,
		window:      window,
		format:      fromVkFormat(surfaceFormat.Format),
		depthFormat: depthFormat,
		samples:     s.samples,
		pixelWidth:  width,
		pixelHeight: height,
		extent: gfx.Extent2D{
			Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
			Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
		},
		state: gfx.FrameIdle,
	}

	native, err := s.drv.CreateSwapchain(s.device, &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   clamp(s.cfg.SwapchainSize, caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:     surfaceFormat.Format,
		ImageColorSpace: surfaceFormat.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  sc.extent.Width,
			Height: sc.extent.Height,
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      choosePresentMode(presentModes, s.cfg.VSync),
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     old.retiring(),
	})
	if err != nil {
		return nil, err
	}
	sc.swapchain, sc.hasSwapchain = native, true

	if err := sc.build(s); err != nil {
		sc.Release()
		return nil, err
	}
	return sc, nil
}

// build creates image views, depth and colour targets, the render pass,
// framebuffers and frame synchronisation for a fresh swapchain.
func (sc *swapchain) build(s *Session) error {
	images, err := s.drv.SwapchainImages(s.device, sc.swapchain)
	if err != nil {
		return err
	}
	for _, img := range images {
		view, err := createImageView(s, img, vk.ImageViewType2d, sc.format, gfx.AspectColor, 1)
		if err != nil {
			return err
		}
		sc.views = append(sc.views, view)
	}

	extent := gfx.Extent3D{Width: sc.extent.Width, Height: sc.extent.Height, Depth: 1}
	if sc.depth, err = createImage(s, gfx.ImageInfo{
		Type:      gfx.ImageType2D,
		Format:    sc.depthFormat,
		Extent:    extent,
		MipLevels: 1,
		Samples:   sc.samples,
		Usage:     gfx.ImageUsageDepthStencilAttachment,
		Tiling:    gfx.TilingOptimal,
	}); err != nil {
		return err
	}
	depthView, err := createImageView(s, sc.depth.image, vk.ImageViewType2d, sc.depthFormat, gfx.AspectDepth, 1)
	if err != nil {
		return err
	}
	sc.depthView = append(sc.depthView, depthView)

	multisampled := sc.samples > gfx.Samples1
	if multisampled {
		if sc.color, err = createImage(s, gfx.ImageInfo{
			Type:      gfx.ImageType2D,
			Format:    sc.format,
			Extent:    extent,
			MipLevels: 1,
			Samples:   sc.samples,
			Usage:     gfx.ImageUsageColorAttachment,
			Tiling:    gfx.TilingOptimal,
		}); err != nil {
			return err
		}
		colorView, err := createImageView(s, sc.color.image, vk.ImageViewType2d, sc.format, gfx.AspectColor, 1)
		if err != nil {
			return err
		}
		sc.colorView = append(sc.colorView, colorView)
	}

	pass, err := createRenderPass(s, sc.format, sc.depthFormat, sc.samples)
	if err != nil {
		return err
	}
	sc.renderPass = append(sc.renderPass, pass)

	for _, view := range sc.views {
		attachments := []vk.ImageView{view, sc.depthView[0]}
		if multisampled {
			attachments = []vk.ImageView{sc.colorView[0], sc.depthView[0], view}
		}
		fb, err := s.drv.CreateFramebuffer(s.device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      pass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           sc.extent.Width,
			Height:          sc.extent.Height,
			Layers:          1,
		})
		if err != nil {
			return err
		}
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	frames := int(s.cfg.MaxFramesInFlight)
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		imageAvailable, err := s.drv.CreateSemaphore(s.device)
		if err != nil {
			return err
		}
		renderFinished, err := s.drv.CreateSemaphore(s.device)
		if err != nil {
			s.drv.DestroySemaphore(s.device, imageAvailable)
			return err
		}
		sc.frames = append(sc.frames, frameSync{imageAvailable: imageAvailable, renderFinished: renderFinished})
	}
	return nil
}

// SwapchainUnit implements gfx.SwapchainUnit.
type SwapchainUnit struct {
	shared
}

// NewSwapchainUnit creates a swapchain unit over the session.
func NewSwapchainUnit(state *handle.Counted[*Session]) (*SwapchainUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &SwapchainUnit{shared: s}, nil
}

// MakeSwapchain implements interface
func (u *SwapchainUnit) MakeSwapchain(window gfx.Window) (gfx.SwapchainRef, error) {
	s := u.session()
	sc, err := createSwapchain(s, window, nil)
	if err != nil {
		return gfx.SwapchainRef{}, err
	}
	ref := handle.Insert[handle.Swapchain](s.storage, sc)
	u.logger("swapchain").WithFields(logrus.Fields{
		"ref":    ref,
		"extent": sc.extent,
		"images": len(sc.views),
	}).Info("swapchain created")
	return ref, nil
}

// RecreateSwapchain implements interface. The old reference is erased once
// the new swapchain exists. When recreation fails the old swapchain stays
// invalid and recreation can be retried.
func (u *SwapchainUnit) RecreateSwapchain(ref gfx.SwapchainRef, window gfx.Window) (gfx.SwapchainRef, error) {
	s := u.session()
	old, err := handle.Lookup[*swapchain](s.storage, ref)
	if err != nil {
		return gfx.SwapchainRef{}, err
	}
	if err := s.WaitIdle(); err != nil {
		return gfx.SwapchainRef{}, err
	}
	old.releaseAttachments()
	old.state = gfx.FrameInvalid

	sc, err := createSwapchain(s, window, old)
	if err != nil {
		return gfx.SwapchainRef{}, err
	}
	erase(s, ref)

	newRef := handle.Insert[handle.Swapchain](s.storage, sc)
	u.logger("swapchain").WithFields(logrus.Fields{
		"old":    ref,
		"ref":    newRef,
		"extent": sc.extent,
	}).Info("swapchain recreated")
	return newRef, nil
}

// BeginFrame implements interface
func (u *SwapchainUnit) BeginFrame(ref gfx.SwapchainRef) (gfx.FrameResult, error) {
	s := u.session()
	sc, err := handle.Lookup[*swapchain](s.storage, ref)
	if err != nil {
		return gfx.FrameError, err
	}
	if sc.state != gfx.FrameIdle {
		return gfx.FrameError, errors.Wrapf(gfx.ErrInvalidFrameState, "begin frame while %s", sc.state)
	}

	if w, h := sc.window.PixelSize(); w != sc.pixelWidth || h != sc.pixelHeight {
		sc.state = gfx.FrameInvalid
		u.logger("swapchain").WithField("ref", ref).Warnf("window resized to %dx%d", w, h)
		return gfx.FrameRecreationRequired, nil
	}

	frame := &sc.frames[sc.frame]
	if frame.last != nil && !frame.last.completed {
		if err := s.drv.WaitForFence(s.device, frame.last.fence); err != nil {
			return gfx.FrameError, err
		}
	}
	if err := s.Collect(); err != nil {
		return gfx.FrameError, err
	}

	sc.state = gfx.FrameAcquirePending
	index, result := s.drv.AcquireNextImage(s.device, sc.swapchain, frame.imageAvailable)
	return u.outcome(ref, sc, "vk.AcquireNextImage()", result, func() {
		sc.imageIndex = index
		sc.state = gfx.FrameAcquired
	})
}

// outcome maps an acquire or present result onto the frame state machine.
func (u *SwapchainUnit) outcome(ref gfx.SwapchainRef, sc *swapchain, call string, result vk.Result, ok func()) (gfx.FrameResult, error) {
	switch result {
	case vk.Success:
		ok()
		return gfx.FrameOK, nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		sc.state = gfx.FrameInvalid
		u.logger("swapchain").WithField("ref", ref).Warnf("%s: swapchain needs recreation", call)
		return gfx.FrameRecreationRequired, nil
	}
	sc.state = gfx.FrameIdle
	err := check(call, result)
	u.logger("swapchain").WithError(err).Error("frame failed")
	return gfx.FrameError, err
}

// ImageIndex implements interface
func (u *SwapchainUnit) ImageIndex(ref gfx.SwapchainRef) (uint32, error) {
	sc, err := handle.Lookup[*swapchain](u.storage(), ref)
	if err != nil {
		return 0, err
	}
	switch sc.state {
	case gfx.FrameAcquired, gfx.FrameRenderingAttachments, gfx.FramePresentable:
		return sc.imageIndex, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidFrameState, "no image acquired while %s", sc.state)
}

// BeginRendering implements interface
func (u *SwapchainUnit) BeginRendering(ref gfx.SwapchainRef, cmdRef gfx.CommandBufferRef, clear gfx.ClearValues) error {
	s := u.session()
	sc, err := handle.Lookup[*swapchain](s.storage, ref)
	if err != nil {
		return err
	}
	if sc.state != gfx.FrameAcquired {
		return errors.Wrapf(gfx.ErrInvalidFrameState, "begin rendering while %s", sc.state)
	}
	cb, err := recording(s, cmdRef)
	if err != nil {
		return err
	}

	clearValues := []vk.ClearValue{
		vk.NewClearValue(clear.Color[:]),
		vk.NewClearDepthStencil(clear.Depth, clear.Stencil),
	}
	if sc.samples > gfx.Samples1 {
		clearValues = append(clearValues, vk.NewClearValue(clear.Color[:]))
	}
	area := vk.Rect2D{
		Extent: vk.Extent2D{Width: sc.extent.Width, Height: sc.extent.Height},
	}
	s.drv.CmdBeginRenderPass(cb.cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      sc.renderPass[0],
		Framebuffer:     sc.framebuffers[sc.imageIndex],
		RenderArea:      area,
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	})
	s.drv.CmdSetViewport(cb.cmd, vk.Viewport{
		Width:    float32(sc.extent.Width),
		Height:   float32(sc.extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	s.drv.CmdSetScissor(cb.cmd, area)

	sc.state = gfx.FrameRenderingAttachments
	return nil
}

// EndRendering implements interface
func (u *SwapchainUnit) EndRendering(ref gfx.SwapchainRef, cmdRef gfx.CommandBufferRef) error {
	s := u.session()
	sc, err := handle.Lookup[*swapchain](s.storage, ref)
	if err != nil {
		return err
	}
	if sc.state != gfx.FrameRenderingAttachments {
		return errors.Wrapf(gfx.ErrInvalidFrameState, "end rendering while %s", sc.state)
	}
	cb, err := recording(s, cmdRef)
	if err != nil {
		return err
	}
	s.drv.CmdEndRenderPass(cb.cmd)
	sc.state = gfx.FramePresentable
	return nil
}

// EndFrame implements interface. cmd has to be recorded; it is submitted
// waiting for the acquired image and the image is presented after it.
func (u *SwapchainUnit) EndFrame(ref gfx.SwapchainRef, cmdRef gfx.CommandBufferRef) (gfx.FrameResult, error) {
	s := u.session()
	sc, err := handle.Lookup[*swapchain](s.storage, ref)
	if err != nil {
		return gfx.FrameError, err
	}
	if sc.state != gfx.FramePresentable {
		return gfx.FrameError, errors.Wrapf(gfx.ErrInvalidFrameState, "end frame while %s", sc.state)
	}
	cb, err := handle.Lookup[*commandBuffer](s.storage, cmdRef)
	if err != nil {
		return gfx.FrameError, err
	}
	if cb.state != gfx.CommandBufferRecorded {
		return gfx.FrameError, errors.Wrapf(gfx.ErrInvalidParameters, "%s is %s", cmdRef, cb.state)
	}

	frame := &sc.frames[sc.frame]
	if err := submit(s, cmdRef, cb, vk.SubmitInfo{
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{frame.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.renderFinished},
	}); err != nil {
		sc.state = gfx.FrameInvalid
		return gfx.FrameError, err
	}
	frame.last = cb.last
	sc.frame = (sc.frame + 1) % len(sc.frames)

	result := s.drv.QueuePresent(s.queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.swapchain},
		PImageIndices:      []uint32{sc.imageIndex},
	})
	return u.outcome(ref, sc, "vk.QueuePresent()", result, func() {
		sc.state = gfx.FrameIdle
	})
}

// FrameState implements interface
func (u *SwapchainUnit) FrameState(ref gfx.SwapchainRef) (gfx.FrameState, error) {
	sc, err := handle.Lookup[*swapchain](u.storage(), ref)
	if err != nil {
		return gfx.FrameInvalid, err
	}
	return sc.state, nil
}

// Extent implements interface
func (u *SwapchainUnit) Extent(ref gfx.SwapchainRef) (gfx.Extent2D, error) {
	sc, err := handle.Lookup[*swapchain](u.storage(), ref)
	if err != nil {
		return gfx.Extent2D{}, err
	}
	return sc.extent, nil
}

// ColorFormat implements interface
func (u *SwapchainUnit) ColorFormat(ref gfx.SwapchainRef) (gfx.Format, error) {
	sc, err := handle.Lookup[*swapchain](u.storage(), ref)
	if err != nil {
		return gfx.FormatUndefined, err
	}
	return sc.format, nil
}

// EraseSwapchain implements interface
func (u *SwapchainUnit) EraseSwapchain(ref gfx.SwapchainRef) {
	erase(u.session(), ref)
}
