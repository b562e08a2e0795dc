// Package recommend строит рекомендации фильмов по оценкам пользователей.
//
// Основная политика (exclusive) работает в две стадии:
//
//  1. Любимые жанры пользователя (средняя оценка >= порога, не более трех) и
//     еще не оцененные им фильмы этих жанров, от новых к старым.
//  2. Если первая стадия ничего не дала, глобальный рейтинг популярности:
//     средняя оценка по убыванию, затем количество оценок, затем дата создания.
//     Фильмы без оценок всегда идут после фильмов с оценками.
//
// Альтернативная политика (merge) всегда строит глобальный рейтинг и стабильно
// поднимает в начало фильмы любимых жанров, ничего не удаляя.
//
// Агрегаты не кешируются: каждый запрос читает текущие оценки из хранилища.
package recommend
