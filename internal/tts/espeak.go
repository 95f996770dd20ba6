//go:build cgo

package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

int
navi_say(const char *text, const char *voice, int rate)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	if (espeak_SetVoiceByName(voice) != EE_OK)
	{
		espeak_VOICE specs;
		memset(&specs, 0, sizeof(specs));
		specs.languages = voice;
		espeak_SetVoiceByProperties(&specs);
	}
	if (rate > 0)
	{ espeak_SetParameter(espeakRATE, rate, 0); }

	espeak_ERROR rc = espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return rc == EE_OK ? 0 : -3;
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"
)

// espeak-ng keeps global state; one utterance at a time.
var espeakMu sync.Mutex

func (e *Espeak) Say(_ context.Context, text string) error {
	if text == "" {
		return nil
	}

	espeakMu.Lock()
	defer espeakMu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	cvoice := C.CString(e.Voice)
	defer C.free(unsafe.Pointer(cvoice))

	if rc := C.navi_say(ctext, cvoice, C.int(e.Rate)); rc != 0 {
		return fmt.Errorf("espeak say failed: %d", int(rc))
	}

	return nil
}
