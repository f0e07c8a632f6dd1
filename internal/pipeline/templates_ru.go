package pipeline

import (
	"errors"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// errorTemplatesRU maps each error-taxonomy sentinel to the fixed
// user-facing Russian-language template the propagation policy requires:
// handlers never let a language-specific error or trace reach the user,
// every external-facing failure renders through one of these.
var errorTemplatesRU = []struct {
	err      error
	template string
}{
	{models.ErrIntentTimeout, "Не успел обработать запрос — попробуйте ещё раз."},
	{models.ErrIntentParseError, "Не понял, что вы имеете в виду. Переформулируйте, пожалуйста."},
	{models.ErrIntentInvalid, "Кажется, в запросе не хватает деталей. Уточните, пожалуйста."},
	{models.ErrReferencesUnknownEntity, "Не нашёл то, что вы имеете в виду. Попробуйте выбрать из списка выше."},
	{models.ErrStoreTransient, "Что-то пошло не так, попробуйте ещё раз через минуту."},
	{models.ErrStoreConstraint, "Такая запись уже существует — проверьте порядок или название."},
	{models.ErrSchedulerPlacementFailure, "Цель сохранена, но расписание подобрать не удалось. Можете настроить его вручную."},
	{models.ErrTransportSendFailure, "Не удалось отправить сообщение. Попробую ещё раз."},
}

// defaultErrorTemplateRU is used when an error does not match the
// taxonomy above — it should never happen for an error the dispatcher
// itself produced, only for something unexpected from a collaborator.
const defaultErrorTemplateRU = "Что-то пошло не так. Попробуйте ещё раз."

// RenderErrorRU maps err to its fixed Russian-language user-facing
// template via errors.Is, falling through the taxonomy in order so a
// wrapped error matches its sentinel regardless of how deep it was
// wrapped.
func RenderErrorRU(err error) string {
	for _, entry := range errorTemplatesRU {
		if errors.Is(err, entry.err) {
			return entry.template
		}
	}
	return defaultErrorTemplateRU
}

// motivatorsRU is the motivator phrasebook the motivation notification
// job selects from via MotivatorRU.
var motivatorsRU = []string{
	"Маленький шаг сегодня — большая цель завтра. Продолжайте!",
	"Вы уже в пути. Ещё один шаг — и прогресс станет заметнее.",
	"Постоянство важнее скорости. Сделайте хотя бы немного сегодня.",
	"Цель становится ближе с каждым выполненным шагом.",
	"Не обязательно идеально — обязательно сегодня.",
}

// MotivatorRU returns the motivator phrase at index i modulo the
// phrasebook length, so a caller without its own randomness source (the
// Notification Scheduler varies i per user/day) still gets variety.
func MotivatorRU(i int) string {
	if i < 0 {
		i = -i
	}
	return motivatorsRU[i%len(motivatorsRU)]
}
